package http

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

// The interfaces below are satisfied by the domain services and let the
// handlers be tested without a database.

type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error)
	Me(ctx context.Context, customerID string) (*auth.Customer, error)
	UpdateProfile(ctx context.Context, customerID string, u auth.ProfileUpdate) (*auth.Customer, error)
	ChangePassword(ctx context.Context, customerID string, req auth.ChangePasswordRequest) error
	Authenticate(token string) (*auth.Claims, error)
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListProducts(ctx context.Context, categorySlug string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, productID string) (catalog.Product, error)
	AdminListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateCategory(ctx context.Context, c *catalog.Category) error
	UpdateCategory(ctx context.Context, categoryID string, u catalog.CategoryUpdate) (catalog.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
	CreateProduct(ctx context.Context, p *catalog.Product) error
	UpdateProduct(ctx context.Context, productID string, u catalog.ProductUpdate) (catalog.Product, error)
	DeactivateProduct(ctx context.Context, productID string) error
}

type CartService interface {
	CreateGuest(ctx context.Context, seed bool) (*cart.Cart, error)
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
	ForCustomer(ctx context.Context, customerID string) (*cart.Cart, error)
	Claim(ctx context.Context, cartID, customerID string) (*cart.Cart, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*cart.Cart, error)
	Quote(ctx context.Context, cartID, promoCode string) (cart.Quote, error)
}

type OrderService interface {
	Create(ctx context.Context, customerID string, req order.CreateRequest) (*order.Order, error)
	Tracking(ctx context.Context, orderNumber string) (order.Tracking, error)
	ListForCustomer(ctx context.Context, customerID string) ([]order.Order, error)
	GetForCustomer(ctx context.Context, orderID, customerID string) (*order.Order, error)
	List(ctx context.Context, f order.ListFilter) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to order.Status, note string) (*order.Order, error)
}

type PaymentService interface {
	CreateOrder(ctx context.Context, customerID, orderID string) (*payment.Checkout, error)
	Verify(ctx context.Context, customerID string, req payment.VerifyRequest) (*payment.VerifyResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Status(ctx context.Context, customerID, orderID string) (payment.StatusView, error)
	Invoice(ctx context.Context, customerID, orderID string) (notify.Invoice, error)
}

type NotificationService interface {
	Preferences(ctx context.Context, customerID string) (notify.Preferences, error)
	UpdatePreferences(ctx context.Context, customerID string, u notify.PreferencesUpdate) (notify.Preferences, error)
	History(ctx context.Context, customerID string, limit int) ([]notify.LogEntry, error)
	ResendInvoice(ctx context.Context, inv notify.Invoice) (notify.Outcome, error)
}

type FormsService interface {
	SubmitRFQ(ctx context.Context, q forms.RFQ) (*forms.RFQ, error)
	SubmitRFQUpload(ctx context.Context, contact string, file *forms.Upload) (*forms.RFQUpload, error)
	SubmitCredit(ctx context.Context, c forms.CreditApplication) (*forms.CreditApplication, error)
	SubmitReview(ctx context.Context, rv forms.Review, photos []forms.Upload) (*forms.Review, error)
	SubmitSupportMessage(ctx context.Context, m forms.SupportMessage) (*forms.SupportMessage, error)
	SubmitGrievance(ctx context.Context, g forms.Grievance, attachments []forms.Upload) (*forms.Grievance, error)

	ListRFQs(ctx context.Context, limit int) ([]forms.RFQ, error)
	ListCredit(ctx context.Context, limit int) ([]forms.CreditApplication, error)
	ListReviews(ctx context.Context, limit int) ([]forms.Review, error)
	ListSupportMessages(ctx context.Context, limit int) ([]forms.SupportMessage, error)
	ListGrievances(ctx context.Context, limit int) ([]forms.Grievance, error)
}

// HealthProbe reports whether a dependency is reachable.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}
