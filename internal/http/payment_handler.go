package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody         = 1 << 20
)

type PaymentHandler struct {
	svc    PaymentService
	logger *zap.Logger
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"orderId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.OrderID == "" {
		writeError(w, r, http.StatusBadRequest, "orderId is required")
		return
	}
	checkout, err := h.svc.CreateOrder(r.Context(), customerID(r), body.OrderID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkout)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req payment.VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Verify(r.Context(), customerID(r), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), customerID(r), chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *PaymentHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Invoice(r.Context(), customerID(r), chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Webhook verifies the signature over the raw body, so the body is read
// as bytes instead of decoded.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}
	if err := h.svc.HandleWebhook(r.Context(), body, r.Header.Get(webhookSignatureHeader)); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
