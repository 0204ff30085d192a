// Package main implements a standalone seed script that populates the
// kabale-market catalog with realistic test data. Vendors and products are
// inserted with direct SQL because catalog writes belong to the vendor
// management tooling, which has no HTTP surface in this repository.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type vendor struct {
	id       string
	name     string
	location string
	phone    string
}

type product struct {
	name  string
	price int64
}

var vendors = []vendor{
	{"vendor_nakato_fresh", "Nakato Fresh Produce", "Central Market, Stall 14", "+256700111222"},
	{"vendor_kigezi_grains", "Kigezi Grains & Pulses", "Central Market, Stall 27", "+256700333444"},
	{"vendor_mama_grace", "Mama Grace Kitchen Supplies", "Makanga Road", "+256700555666"},
	{"vendor_rukiga_dairy", "Rukiga Dairy Cooperative", "Rukiga Road", "+256700777888"},
	{"vendor_kabale_crafts", "Kabale Crafts Collective", "Main Street", "+256700999000"},
}

// Prices are in UGX, whole shillings.
var catalog = map[string][]product{
	"vendor_nakato_fresh": {
		{"Matooke (bunch)", 15000},
		{"Irish Potatoes (5kg)", 12000},
		{"Cabbage (head)", 2000},
		{"Tomatoes (basin)", 8000},
		{"Passion Fruit (kg)", 7000},
	},
	"vendor_kigezi_grains": {
		{"Sorghum Flour (2kg)", 9000},
		{"Dried Beans (2kg)", 10000},
		{"Groundnuts (kg)", 8500},
		{"Millet Flour (2kg)", 9500},
	},
	"vendor_mama_grace": {
		{"Cooking Oil (1L)", 11000},
		{"Iodised Salt (kg)", 2500},
		{"Charcoal (sack)", 35000},
		{"Matchboxes (pack of 10)", 3000},
	},
	"vendor_rukiga_dairy": {
		{"Fresh Milk (1L)", 2500},
		{"Ghee (500g)", 18000},
		{"Yoghurt (500ml)", 4000},
	},
	"vendor_kabale_crafts": {
		{"Woven Basket (medium)", 25000},
		{"Sisal Mat", 30000},
		{"Clay Pot", 15000},
	},
}

func seedVendors(ctx context.Context, pool *pgxpool.Pool) error {
	for _, v := range vendors {
		_, err := pool.Exec(ctx, `
			INSERT INTO vendors (id, name, location, phone)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				location = EXCLUDED.location,
				phone = EXCLUDED.phone,
				updated_at = NOW()`,
			v.id, v.name, v.location, v.phone,
		)
		if err != nil {
			return fmt.Errorf("insert vendor %s: %w", v.id, err)
		}
		log.Printf("seeded vendor: %s", v.name)
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	count := 0
	for vendorID, products := range catalog {
		for i, p := range products {
			productID := fmt.Sprintf("%s_p%02d", vendorID, i+1)
			imageURL := fmt.Sprintf("https://img.kabale-market.ug/products/%s.jpg", productID)
			_, err := pool.Exec(ctx, `
				INSERT INTO products (id, vendor_id, name, price, image_url)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					price = EXCLUDED.price,
					image_url = EXCLUDED.image_url,
					updated_at = NOW()`,
				productID, vendorID, p.name, p.price, imageURL,
			)
			if err != nil {
				return fmt.Errorf("insert product %s: %w", productID, err)
			}
			count++
		}
	}
	log.Printf("seeded %d products", count)
	return nil
}

// seedExtraProducts generates additional filler products so paginated
// vendor pages have more than one screen of content during manual testing.
func seedExtraProducts(ctx context.Context, pool *pgxpool.Pool, perVendor int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	count := 0
	for _, v := range vendors {
		for i := 0; i < perVendor; i++ {
			productID := fmt.Sprintf("%s_x%03d", v.id, i+1)
			name := fmt.Sprintf("%s Special #%d", v.name, i+1)
			price := int64(rng.Intn(40)+1) * 1000
			_, err := pool.Exec(ctx, `
				INSERT INTO products (id, vendor_id, name, price)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO NOTHING`,
				productID, v.id, name, price,
			)
			if err != nil {
				return fmt.Errorf("insert product %s: %w", productID, err)
			}
			count++
		}
	}
	log.Printf("seeded %d extra products", count)
	return nil
}

func main() {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "kabale"),
		getEnv("POSTGRES_PASSWORD", "kabale_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "kabale_market"),
		getEnv("POSTGRES_SSL_MODE", "disable"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	if err := seedVendors(ctx, pool); err != nil {
		log.Fatalf("seed vendors: %v", err)
	}
	if err := seedProducts(ctx, pool); err != nil {
		log.Fatalf("seed products: %v", err)
	}
	if err := seedExtraProducts(ctx, pool, 10); err != nil {
		log.Fatalf("seed extra products: %v", err)
	}

	log.Println("seed complete")
}
