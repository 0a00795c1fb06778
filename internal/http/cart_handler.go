package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
)

type CartHandler struct {
	svc    CartService
	logger *zap.Logger
}

// visible loads the cart and hides carts owned by someone other than the
// caller. Guest carts are reachable by id alone.
func (h *CartHandler) visible(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return nil, false
	}
	if c.CustomerID != "" && c.CustomerID != customerID(r) {
		writeServiceError(w, r, h.logger, cart.ErrNotFound)
		return nil, false
	}
	return c, true
}

func (h *CartHandler) reply(w http.ResponseWriter, r *http.Request, c *cart.Cart, err error) {
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateGuest opens an anonymous cart; ?seed=true preloads a few products.
func (h *CartHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.CreateGuest(r.Context(), r.URL.Query().Get("seed") == "true")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.visible(w, r); ok {
		writeJSON(w, http.StatusOK, c)
	}
}

// Totals prices the cart with an optional ?promoCode=.
func (h *CartHandler) Totals(w http.ResponseWriter, r *http.Request) {
	c, ok := h.visible(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Quote(r.Context(), c.ID, r.URL.Query().Get("promoCode"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type quantityRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.visible(w, r)
	if !ok {
		return
	}
	var body quantityRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	updated, err := h.svc.AddItem(r.Context(), c.ID, body.ProductID, body.Quantity)
	h.reply(w, r, updated, err)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.visible(w, r)
	if !ok {
		return
	}
	var body quantityRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	updated, err := h.svc.UpdateQuantity(r.Context(), c.ID, chi.URLParam(r, "itemId"), body.Quantity)
	h.reply(w, r, updated, err)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.visible(w, r)
	if !ok {
		return
	}
	updated, err := h.svc.RemoveItem(r.Context(), c.ID, chi.URLParam(r, "itemId"))
	h.reply(w, r, updated, err)
}

func (h *CartHandler) Claim(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Claim(r.Context(), chi.URLParam(r, "cartId"), customerID(r))
	h.reply(w, r, c, err)
}

func (h *CartHandler) Mine(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ForCustomer(r.Context(), customerID(r))
	h.reply(w, r, c, err)
}
