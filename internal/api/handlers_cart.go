package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/storage"
)

const maxCartBody = 16 * 1024

func (h *Handlers) cartReady(w http.ResponseWriter, r *http.Request) bool {
	if h.cart == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Cart is not configured")
		return false
	}
	return true
}

// CreateCart handles POST /api/v1/cart
func (h *Handlers) CreateCart(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, &models.Cart{ID: cart.NewCartID(), Items: []models.CartItem{}})
}

// GetCart handles GET /api/v1/cart/{cartID}
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}
	c, err := h.cart.Get(r.Context(), mux.Vars(r)["cartID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, c)
}

// AddCartItem handles POST /api/v1/cart/{cartID}/items
func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}

	var req models.AddCartItemRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCartBody)).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.ProductID == "" {
		resp := h.newErrorResponse(r, "Validation failed", models.ErrorCodeValidation)
		resp.Details = map[string]string{"product_id": "Product id is required"}
		h.writeJSONResponse(w, http.StatusUnprocessableEntity, resp)
		return
	}

	c, err := h.cart.Add(r.Context(), mux.Vars(r)["cartID"], req.ProductID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, c)
}

// RemoveCartItem handles DELETE /api/v1/cart/{cartID}/items/{productID}
func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}
	vars := mux.Vars(r)
	c, err := h.cart.Remove(r.Context(), vars["cartID"], vars["productID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, c)
}

// ClearCart handles DELETE /api/v1/cart/{cartID}
func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}
	if err := h.cart.Clear(r.Context(), mux.Vars(r)["cartID"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, &models.ActionResponse{Message: "Cart cleared", Timestamp: time.Now()})
}

// Checkout handles POST /api/v1/checkout
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCartBody)).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON in request body")
		return
	}

	order, err := h.cart.Checkout(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/{orderID}
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	if !h.cartReady(w, r) {
		return
	}
	id := mux.Vars(r)["orderID"]
	order, err := h.cart.Order(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "order '"+id+"' not found")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, order)
}
