package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type OrderHandler struct {
	svc    OrderService
	logger *zap.Logger
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req order.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.svc.Create(r.Context(), customerID(r), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o.Receipt())
}

func (h *OrderHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tracking(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListForCustomer(r.Context(), customerID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetForCustomer(r.Context(), chi.URLParam(r, "orderId"), customerID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// AdminList accepts ?status=&limit=&offset=.
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	f := order.ListFilter{
		Status: order.Status(r.URL.Query().Get("status")),
		Limit:  queryLimit(r),
		Offset: queryInt(r, "offset"),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, r, http.StatusBadRequest, "unknown status filter")
		return
	}
	orders, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status order.Status `json:"status"`
		Note   string       `json:"note"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	o, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), body.Status, body.Note)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
