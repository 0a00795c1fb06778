package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"
)

// Fakes embed the interface so unimplemented methods panic if reached.

type fakeAuth struct {
	AuthService
	registerErr error
}

func (f *fakeAuth) Authenticate(token string) (*auth.Claims, error) {
	switch token {
	case customerToken:
		return &auth.Claims{Role: auth.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "cust-1"}}, nil
	case adminToken:
		return &auth.Claims{Role: auth.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}}, nil
	}
	return nil, auth.ErrInvalidToken
}

func (f *fakeAuth) Me(_ context.Context, customerID string) (*auth.Customer, error) {
	return &auth.Customer{ID: customerID, Email: "asha@example.com"}, nil
}

func (f *fakeAuth) Register(_ context.Context, _ auth.RegisterRequest) (*auth.Session, error) {
	return nil, f.registerErr
}

type fakeCart struct {
	CartService
	cart      *cart.Cart
	promoSeen string
}

func (f *fakeCart) Get(_ context.Context, cartID string) (*cart.Cart, error) {
	if f.cart == nil || f.cart.ID != cartID {
		return nil, cart.ErrNotFound
	}
	return f.cart, nil
}

func (f *fakeCart) Quote(_ context.Context, _ string, promoCode string) (cart.Quote, error) {
	f.promoSeen = promoCode
	return cart.Price(f.cart, promoCode)
}

type fakeOrders struct {
	OrderService
	createErr error
	filter    order.ListFilter
}

func (f *fakeOrders) Create(_ context.Context, customerID string, req order.CreateRequest) (*order.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &order.Order{
		ID:            "ord-1",
		OrderNumber:   "ORD-1700000000000-ABCDEFGHI",
		CustomerID:    customerID,
		PaymentMethod: req.PaymentMethod,
		Total:         decimal.NewFromInt(5410),
		Status:        order.StatusPending,
	}, nil
}

func (f *fakeOrders) List(_ context.Context, filter order.ListFilter) ([]order.Order, error) {
	f.filter = filter
	return nil, nil
}

type fakePayments struct {
	PaymentService
	body       []byte
	signature  string
	webhookErr error
	invoices   map[string]notify.Invoice
}

func (f *fakePayments) Invoice(_ context.Context, customerID, orderID string) (notify.Invoice, error) {
	inv, ok := f.invoices[orderID]
	if !ok || inv.CustomerID != customerID {
		return notify.Invoice{}, order.ErrNotFound
	}
	return inv, nil
}

type fakeNotifications struct {
	NotificationService
	resent []string
}

func (f *fakeNotifications) ResendInvoice(_ context.Context, inv notify.Invoice) (notify.Outcome, error) {
	if !inv.Status.Paid() {
		return notify.Outcome{}, notify.ErrOrderNotPaid
	}
	f.resent = append(f.resent, inv.OrderNumber)
	return notify.Outcome{
		OrderID: inv.OrderID,
		Steps:   []notify.StepResult{{Step: notify.StepInvoice, Status: notify.StatusSent}},
	}, nil
}

type fakeCatalog struct {
	CatalogService
	products  []catalog.Product
	deleteErr error
	updated   catalog.CategoryUpdate
}

func (f *fakeCatalog) AdminListProducts(_ context.Context) ([]catalog.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) UpdateCategory(_ context.Context, categoryID string, u catalog.CategoryUpdate) (catalog.Category, error) {
	f.updated = u
	c := catalog.Category{ID: categoryID, Name: "Drills", Slug: "drills"}
	if u.Slug != nil {
		c.Slug = *u.Slug
	}
	return c, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, _ string) error {
	return f.deleteErr
}

func (f *fakePayments) HandleWebhook(_ context.Context, body []byte, signature string) error {
	f.body = body
	f.signature = signature
	return f.webhookErr
}

type fakeForms struct {
	FormsService
	review forms.Review
	photos []string
}

func (f *fakeForms) SubmitReview(_ context.Context, rv forms.Review, photos []forms.Upload) (*forms.Review, error) {
	for _, p := range photos {
		b, _ := io.ReadAll(p.Body)
		f.photos = append(f.photos, p.FileName+":"+string(b))
	}
	rv.ID = "rev-1"
	rv.Photos = len(photos)
	f.review = rv
	return &rv, nil
}

type fakeProbe struct {
	name string
	err  error
}

func (p fakeProbe) Name() string                    { return p.name }
func (p fakeProbe) Check(ctx context.Context) error { return p.err }

func newTestRouter(d Deps) http.Handler {
	if d.Auth == nil {
		d.Auth = &fakeAuth{}
	}
	if d.CORSAllowOrigins == nil {
		d.CORSAllowOrigins = []string{"http://localhost:3000"}
	}
	return NewRouter(d)
}

func do(t *testing.T, h http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(Deps{HealthProbes: []HealthProbe{fakeProbe{name: "postgres"}}})

	rr := do(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "storefront-service", body["service"])
}

func TestHealthDegraded(t *testing.T) {
	router := newTestRouter(Deps{HealthProbes: []HealthProbe{
		fakeProbe{name: "postgres"},
		fakeProbe{name: "rabbitmq", err: errors.New("connection refused")},
	}})

	rr := do(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "up", deps["postgres"])
	assert.Contains(t, deps["rabbitmq"], "connection refused")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/cart/guest", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/cart/guest", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDEchoAndGeneration(t *testing.T) {
	router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Correlation-Id", "abc")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "abc", rr.Header().Get("X-Correlation-Id"))

	rr = do(t, router, http.MethodGet, "/api/health", "", nil)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-Id"))
}

func TestAuthenticationRequired(t *testing.T) {
	router := newTestRouter(Deps{})

	rr := do(t, router, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/auth/me", customerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	user := decodeBody(t, rr)["user"].(map[string]any)
	assert.Equal(t, "cust-1", user["id"])
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	orders := &fakeOrders{}
	router := newTestRouter(Deps{Orders: orders})

	rr := do(t, router, http.MethodGet, "/api/admin/orders", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/admin/orders?status=shipped&limit=10&offset=20", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
	assert.Equal(t, order.ListFilter{Status: order.StatusShipped, Limit: 10, Offset: 20}, orders.filter)

	rr = do(t, router, http.MethodGet, "/api/admin/orders?status=lost", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
	}{
		"validation": {err: validate.Field("email", "Valid email is required"), status: http.StatusBadRequest},
		"duplicate":  {err: auth.ErrEmailTaken, status: http.StatusConflict},
		"bad login":  {err: auth.ErrInvalidCredentials, status: http.StatusUnauthorized},
		"wrapped":    {err: errors.Join(errors.New("ctx"), auth.ErrEmailTaken), status: http.StatusConflict},
		"unexpected": {err: errors.New("pq: connection reset"), status: http.StatusInternalServerError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			router := newTestRouter(Deps{Auth: &fakeAuth{registerErr: tc.err}})
			rr := do(t, router, http.MethodPost, "/api/auth/register", "", strings.NewReader(`{}`))
			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestValidationErrorBody(t *testing.T) {
	router := newTestRouter(Deps{Auth: &fakeAuth{registerErr: validate.Field("email", "Valid email is required")}})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`))
	req.Header.Set("X-Correlation-Id", "corr-42")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "corr-42", body["correlationId"])
	assert.Equal(t, map[string]any{"email": "Valid email is required"}, body["errors"])
}

func TestInternalErrorsAreHidden(t *testing.T) {
	router := newTestRouter(Deps{Auth: &fakeAuth{registerErr: errors.New("pq: password authentication failed")}})

	rr := do(t, router, http.MethodPost, "/api/auth/register", "", strings.NewReader(`{}`))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decodeBody(t, rr)["error"])
}

func TestMalformedJSON(t *testing.T) {
	router := newTestRouter(Deps{})

	rr := do(t, router, http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"email":`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCartOwnedByAnotherCustomerIsHidden(t *testing.T) {
	carts := &fakeCart{cart: &cart.Cart{ID: "cart-1", CustomerID: "cust-1", Status: cart.StatusOpen}}
	router := newTestRouter(Deps{Cart: carts})

	rr := do(t, router, http.MethodGet, "/api/cart/cart-1", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/cart/cart-1", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/cart/cart-1", customerToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCartTotals(t *testing.T) {
	carts := &fakeCart{cart: &cart.Cart{ID: "cart-1", Status: cart.StatusOpen, Items: []cart.Item{
		{ID: "i1", ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)},
		{ID: "i2", ProductID: "p2", Quantity: 1, UnitPrice: decimal.NewFromInt(1500)},
	}}}
	router := newTestRouter(Deps{Cart: carts})

	rr := do(t, router, http.MethodGet, "/api/cart/cart-1/totals?promoCode=save10", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "save10", carts.promoSeen)

	var q struct {
		Totals struct {
			Subtotal decimal.Decimal `json:"subtotal"`
			Discount decimal.Decimal `json:"discount"`
			Total    decimal.Decimal `json:"total"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.True(t, q.Totals.Subtotal.Equal(decimal.NewFromInt(4500)))
	assert.True(t, q.Totals.Discount.Equal(decimal.NewFromInt(450)))
	assert.True(t, q.Totals.Total.Equal(decimal.NewFromInt(4960)))

	rr = do(t, router, http.MethodGet, "/api/cart/cart-1/totals?promoCode=BOGUS", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateOrder(t *testing.T) {
	orders := &fakeOrders{}
	router := newTestRouter(Deps{Orders: orders})

	rr := do(t, router, http.MethodPost, "/api/orders/create", "", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/orders/create", customerToken,
		strings.NewReader(`{"addressLine":"12 MG Road","city":"Bengaluru","state":"KA","pincode":"560001","paymentMethod":"upi"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ord-1", body["orderId"])
	assert.Equal(t, "upi", body["paymentMethod"])

	orders.createErr = order.ErrEmptyCart
	rr = do(t, router, http.MethodPost, "/api/orders/create", customerToken, strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPaymentWebhook(t *testing.T) {
	payments := &fakePayments{}
	router := newTestRouter(Deps{Payments: payments})

	raw := `{"event":"payment.failed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(raw))
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeBody(t, rr)["status"])
	assert.Equal(t, raw, string(payments.body))
	assert.Equal(t, "deadbeef", payments.signature)

	payments.webhookErr = payment.ErrInvalidWebhookSignature
	rr = do(t, router, http.MethodPost, "/api/payment/webhook", "", strings.NewReader(raw))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSendInvoice(t *testing.T) {
	payments := &fakePayments{invoices: map[string]notify.Invoice{
		"o1": {OrderID: "o1", OrderNumber: "ORD-1-1000", CustomerID: "cust-1", Status: order.StatusConfirmed},
		"o2": {OrderID: "o2", OrderNumber: "ORD-2-2000", CustomerID: "cust-1", Status: order.StatusPending},
	}}
	notifications := &fakeNotifications{}
	router := newTestRouter(Deps{Payments: payments, Notifications: notifications})

	rr := do(t, router, http.MethodPost, "/api/notifications/send-invoice/o1", customerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "o1", decodeBody(t, rr)["orderId"])
	assert.Equal(t, []string{"ORD-1-1000"}, notifications.resent)

	rr = do(t, router, http.MethodPost, "/api/notifications/send-invoice/o2", customerToken, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/notifications/send-invoice/o9", customerToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/notifications/send-invoice/o1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminCatalogRoutes(t *testing.T) {
	catalogSvc := &fakeCatalog{products: []catalog.Product{
		{ID: "p1", Name: "Drill", IsActive: true},
		{ID: "p2", Name: "Old Drill"},
	}}
	router := newTestRouter(Deps{Catalog: catalogSvc})

	rr := do(t, router, http.MethodGet, "/api/admin/products", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/admin/products", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var products []catalog.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
	assert.Len(t, products, 2)

	rr = do(t, router, http.MethodPatch, "/api/admin/categories/c1", adminToken, strings.NewReader(`{"slug":"power-drills"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "power-drills", decodeBody(t, rr)["slug"])
	assert.Nil(t, catalogSvc.updated.Name)

	rr = do(t, router, http.MethodDelete, "/api/admin/categories/c1", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	catalogSvc.deleteErr = catalog.ErrCategoryInUse
	rr = do(t, router, http.MethodDelete, "/api/admin/categories/c1", adminToken, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSubmitReviewMultipart(t *testing.T) {
	svc := &fakeForms{}
	router := newTestRouter(Deps{Forms: svc})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("rating", "5"))
	require.NoError(t, mw.WriteField("title", "Sturdy"))
	require.NoError(t, mw.WriteField("details", "Holds up well on site."))
	require.NoError(t, mw.WriteField("recommend", "true"))
	for _, name := range []string{"a.jpg", "b.png"} {
		fw, err := mw.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("img-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 5, svc.review.Rating)
	assert.True(t, svc.review.Recommend)
	assert.Equal(t, "Sturdy", svc.review.Title)
	assert.Equal(t, []string{"a.jpg:img-a.jpg", "b.png:img-b.png"}, svc.photos)
	assert.EqualValues(t, 2, decodeBody(t, rr)["photos"])
}

func TestSubmitReviewRejectsNonMultipart(t *testing.T) {
	router := newTestRouter(Deps{Forms: &fakeForms{}})

	rr := do(t, router, http.MethodPost, "/api/reviews", "", strings.NewReader(`{"rating":5}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	router := newTestRouter(Deps{})

	rr := do(t, router, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not found", decodeBody(t, rr)["error"])
}
