package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/correlation"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(correlation.Header)
		if cid == "" {
			cid = uuid.NewString()
		}

		// expose to client + propagate downstream
		w.Header().Set(correlation.Header, cid)
		next.ServeHTTP(w, r.WithContext(correlation.WithID(r.Context(), cid)))
	})
}

func cors(allowOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowOrigins) == 1 && allowOrigins[0] == "*"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			writeCORSHeaders(w, origin, allowOrigins, allowAll)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeCORSHeaders(w http.ResponseWriter, origin string, allowOrigins []string, allowAll bool) {
	if origin == "" {
		return
	}
	if !allowAll && !originAllowed(origin, allowOrigins) {
		return
	}

	// reflect the origin so credentialed requests work
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Correlation-Id, X-Razorpay-Signature")
}

func originAllowed(origin string, allow []string) bool {
	for _, a := range allow {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(origin)) {
			return true
		}
	}
	return false
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("correlationId", correlation.FromContext(r.Context())))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticator resolves bearer tokens into claims stored on the context.
type authenticator struct {
	auth AuthService
}

// optional attaches claims when a valid token is present and ignores the
// header otherwise.
func (a authenticator) optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearerToken(r); tok != "" {
			if claims, err := a.auth.Authenticate(tok); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxClaims, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireCustomer answers 401 without a token and 403 for an invalid one.
func (a authenticator) requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeError(w, r, http.StatusUnauthorized, "Access token required")
			return
		}
		claims, err := a.auth.Authenticate(tok)
		if err != nil {
			writeError(w, r, http.StatusForbidden, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxClaims, claims)))
	})
}

func (a authenticator) requireAdmin(next http.Handler) http.Handler {
	return a.requireCustomer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := claimsFrom(r.Context()); c == nil || c.Role != auth.RoleAdmin {
			writeError(w, r, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(ctxClaims).(*auth.Claims)
	return c
}

// customerID is empty for anonymous requests.
func customerID(r *http.Request) string {
	if c := claimsFrom(r.Context()); c != nil {
		return c.CustomerID()
	}
	return ""
}
