package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string

	Auth          AuthService
	Catalog       CatalogService
	Cart          CartService
	Orders        OrderService
	Payments      PaymentService
	Notifications NotificationService
	Forms         FormsService

	HealthProbes []HealthProbe
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	authn := authenticator{auth: d.Auth}

	r := chi.NewRouter()
	// outer -> inner
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationID)
	r.Use(accessLog(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(d.CORSAllowOrigins))

	health := &HealthHandler{probes: d.HealthProbes}
	authH := &AuthHandler{svc: d.Auth, logger: d.Logger}
	catalogH := &CatalogHandler{svc: d.Catalog, logger: d.Logger}
	cartH := &CartHandler{svc: d.Cart, logger: d.Logger}
	orderH := &OrderHandler{svc: d.Orders, logger: d.Logger}
	payH := &PaymentHandler{svc: d.Payments, logger: d.Logger}
	notifyH := &NotificationHandler{svc: d.Notifications, invoices: d.Payments, logger: d.Logger}
	formsH := &FormsHandler{svc: d.Forms, logger: d.Logger}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", health.Health)

		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Group(func(r chi.Router) {
			r.Use(authn.requireCustomer)
			r.Get("/auth/me", authH.Me)
			r.Put("/auth/profile", authH.UpdateProfile)
			r.Post("/auth/change-password", authH.ChangePassword)
		})

		r.Get("/categories", catalogH.ListCategories)
		r.Get("/products", catalogH.ListProducts)
		r.Get("/products/{productId}", catalogH.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Use(authn.optional)
			r.Post("/guest", cartH.CreateGuest)
			r.Get("/{cartId}", cartH.Get)
			r.Get("/{cartId}/totals", cartH.Totals)
			r.Post("/{cartId}/items", cartH.AddItem)
			r.Patch("/{cartId}/items/{itemId}", cartH.UpdateItem)
			r.Delete("/{cartId}/items/{itemId}", cartH.RemoveItem)
			r.With(authn.requireCustomer).Post("/{cartId}/claim", cartH.Claim)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.requireCustomer)
			r.Get("/me/cart", cartH.Mine)
			r.Get("/me/orders", orderH.ListMine)
			r.Get("/me/orders/{orderId}", orderH.GetMine)
			r.Post("/orders/create", orderH.Create)

			r.Post("/payment/create-order", payH.CreateOrder)
			r.Post("/payment/verify", payH.Verify)
			r.Get("/payment/status/{orderId}", payH.Status)
			r.Get("/payment/invoice/{orderId}", payH.Invoice)

			r.Get("/notifications/preferences", notifyH.Preferences)
			r.Put("/notifications/preferences", notifyH.UpdatePreferences)
			r.Get("/notifications/history", notifyH.History)
			r.Post("/notifications/send-invoice/{orderId}", notifyH.SendInvoice)
		})
		r.Get("/orders/{orderNumber}/tracking", orderH.Tracking)
		r.Post("/payment/webhook", payH.Webhook)

		r.Post("/rfq", formsH.SubmitRFQ)
		r.Post("/rfq/upload", formsH.UploadRFQ)
		r.Post("/credit-applications", formsH.SubmitCredit)
		r.Post("/reviews", formsH.SubmitReview)
		r.Post("/support/messages", formsH.SubmitSupportMessage)
		r.Post("/grievances", formsH.SubmitGrievance)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn.requireAdmin)
			r.Get("/orders", orderH.AdminList)
			r.Patch("/orders/{orderId}/status", orderH.AdminUpdateStatus)
			r.Get("/categories", catalogH.ListCategories)
			r.Post("/categories", catalogH.CreateCategory)
			r.Patch("/categories/{categoryId}", catalogH.UpdateCategory)
			r.Delete("/categories/{categoryId}", catalogH.DeleteCategory)
			r.Get("/products", catalogH.AdminListProducts)
			r.Post("/products", catalogH.CreateProduct)
			r.Patch("/products/{productId}", catalogH.UpdateProduct)
			r.Delete("/products/{productId}", catalogH.DeactivateProduct)
			r.Get("/rfq", formsH.ListRFQs)
			r.Get("/credit", formsH.ListCredit)
			r.Get("/reviews", formsH.ListReviews)
			r.Get("/grievances", formsH.ListGrievances)
			r.Get("/support", formsH.ListSupportMessages)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
