package domain

import "time"

// Order status constants. Payment is a placeholder until mobile-money
// integration lands, so both statuses start out pending.
const (
	OrderStatusPending   = "pending"
	PaymentStatusPending = "pending"
)

// Supported payment methods.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentMTNMobileMoney = "mtn_momo"
	PaymentAirtelMoney    = "airtel_money"
)

// PaymentMethods returns the set of accepted payment methods.
func PaymentMethods() []string {
	return []string{PaymentCashOnDelivery, PaymentMTNMobileMoney, PaymentAirtelMoney}
}

// IsValidPaymentMethod checks whether the given method is accepted.
func IsValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// IsMobileMoney reports whether the method requires a mobile money number.
func IsMobileMoney(method string) bool {
	return method == PaymentMTNMobileMoney || method == PaymentAirtelMoney
}

// Order is one vendor's share of a checkout: all of that vendor's cart lines
// plus an even share of the delivery fee.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id,omitempty"` // empty for guest checkout
	VendorID        string      `json:"vendor_id"`
	TotalAmount     int64       `json:"total_amount"`
	DeliveryName    string      `json:"delivery_name"`
	DeliveryPhone   string      `json:"delivery_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	Notes           string      `json:"notes,omitempty"`
	PaymentMethod   string      `json:"payment_method"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"payment_status"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one product entry within a vendor order.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
}
