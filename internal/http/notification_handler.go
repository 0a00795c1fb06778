package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
)

type NotificationHandler struct {
	svc      NotificationService
	invoices PaymentService
	logger   *zap.Logger
}

func (h *NotificationHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Preferences(r.Context(), customerID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var u notify.PreferencesUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	p, err := h.svc.UpdatePreferences(r.Context(), customerID(r), u)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *NotificationHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), customerID(r), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []notify.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// SendInvoice emails the invoice of one of the caller's paid orders again.
func (h *NotificationHandler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Invoice(r.Context(), customerID(r), chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	outcome, err := h.svc.ResendInvoice(r.Context(), inv)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
