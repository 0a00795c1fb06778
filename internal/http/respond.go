package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/correlation"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error         string            `json:"error"`
	Errors        map[string]string `json:"errors,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, CorrelationID: correlation.FromContext(r.Context())})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, payment.ErrInvalidWebhookSignature):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, auth.ErrNothingToUpdate),
		errors.Is(err, cart.ErrQuantityLimit),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, cart.ErrCartClosed),
		errors.Is(err, cart.ErrOwnedByOther),
		errors.Is(err, catalog.ErrDuplicate),
		errors.Is(err, catalog.ErrCategoryInUse),
		errors.Is(err, notify.ErrOrderNotPaid),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, payment.ErrNotPayable):
		return http.StatusConflict
	case errors.Is(err, notify.ErrInvoiceNotSent):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), CorrelationID: correlation.FromContext(r.Context())}

	var verr *validate.Error
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("correlationId", resp.CorrelationID),
			zap.Error(err))
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryLimit leaves clamping to the repositories.
func queryLimit(r *http.Request) int { return queryInt(r, "limit") }
