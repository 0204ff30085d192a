package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaronkwesiga/kabale-market/internal/domain"
	"github.com/aaronkwesiga/kabale-market/internal/service"
	"github.com/aaronkwesiga/kabale-market/pkg/httputil"
	"github.com/aaronkwesiga/kabale-market/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	manager *service.CartManager
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(manager *service.CartManager, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
// The storefront sends the product card's fields along with the identifiers.
type AddItemRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	Name       string `json:"name" validate:"required,min=1,max=500"`
	Price      int64  `json:"price" validate:"gte=0"`
	ImageURL   string `json:"image_url"`
	VendorID   string `json:"vendor_id" validate:"required"`
	VendorName string `json:"vendor_name"`
}

// UpdateQuantityRequest is the JSON request body for updating a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartView is the JSON representation of a cart returned to clients.
type cartView struct {
	Items      domain.Snapshot `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   int64           `json:"subtotal"`
	Loading    bool            `json:"loading"`
}

func viewOf(store *service.CartStore) cartView {
	snapshot := store.Snapshot()
	return cartView{
		Items:      snapshot,
		TotalItems: snapshot.TotalItems(),
		Subtotal:   snapshot.Subtotal(),
		Loading:    store.Loading(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	store, err := h.manager.Store(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(store)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store, err := h.manager.Store(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product := domain.Product{
		ID:         req.ProductID,
		Name:       req.Name,
		Price:      req.Price,
		ImageURL:   req.ImageURL,
		VendorID:   req.VendorID,
		VendorName: req.VendorName,
	}

	if _, err := store.AddToCart(r.Context(), product); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(store)})
}

// UpdateQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	store, err := h.manager.Store(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if _, err := store.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(store)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	store, err := h.manager.Store(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if _, err := store.RemoveFromCart(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(store)})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	store, err := h.manager.Store(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := store.ClearCart(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.manager.Evict(session)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(store)})
}

// Refresh handles POST /api/v1/cart/refresh. Clients call it after signing in
// or out so the cart reflects the new identity's persisted state.
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	store, err := h.manager.Refresh(r.Context(), session)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: viewOf(store)})
}
