package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

type fakeRepo struct {
	cartItems   []Item
	createErr   error
	created     *Order
	buildCalled bool

	getByIDFunc      func(ctx context.Context, orderID string) (*Order, error)
	getByNumberFunc  func(ctx context.Context, number string) (*Order, error)
	updateStatusFunc func(ctx context.Context, orderID string, to Status, note string) (Status, error)
	events           []TrackingEvent
}

func (f *fakeRepo) CreateFromCart(ctx context.Context, cartID string, build BuildFunc) (*Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.buildCalled = true
	o, err := build(f.cartItems)
	if err != nil {
		return nil, err
	}
	o.ID = "order-1"
	o.CartID = cartID
	o.Items = f.cartItems
	f.created = o
	return o, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, orderID)
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	if f.getByNumberFunc != nil {
		return f.getByNumberFunc(ctx, number)
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetByGatewayOrderID(ctx context.Context, id string) (*Order, error) {
	return nil, ErrNotFound
}

func (f *fakeRepo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return []Order{}, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return []Order{}, nil
}

func (f *fakeRepo) Items(ctx context.Context, orderID string) ([]Item, error) {
	return f.cartItems, nil
}

func (f *fakeRepo) TrackingEvents(ctx context.Context, orderID string) ([]TrackingEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error {
	return nil
}

func (f *fakeRepo) Transition(ctx context.Context, q db.Querier, orderID string, to Status, note string) (Status, error) {
	return StatusPending, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, orderID string, to Status, note string) (Status, error) {
	if f.updateStatusFunc != nil {
		return f.updateStatusFunc(ctx, orderID, to, note)
	}
	return StatusPending, nil
}

type fakeCarts struct {
	c   *cart.Cart
	err error
}

func (f *fakeCarts) GetOpenForCustomer(ctx context.Context, customerID string) (*cart.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.c, nil
}

type fakePublisher struct {
	published []*Order
	err       error
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, o *Order) error {
	f.published = append(f.published, o)
	return f.err
}

func validRequest() CreateRequest {
	return CreateRequest{
		AddressLine:   "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		Pincode:       "560001",
		PaymentMethod: "razorpay",
	}
}

func newTestService(repo *fakeRepo, carts *fakeCarts, pub *fakePublisher) *Service {
	s := NewService(repo, carts, pub, zap.NewNop())
	s.now = func() time.Time { return time.UnixMilli(1718000123456) }
	return s
}

func TestCreateComputesTotalsServerSide(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		items    []Item
		promo    string
		subtotal int64
		gst      int64
		shipping int64
		discount int64
		total    int64
	}{
		"below free shipping": {
			items:    []Item{{ProductID: "p1", Quantity: 3, UnitPrice: decimal.NewFromInt(1500)}},
			subtotal: 4500, gst: 810, shipping: 100, total: 5410,
		},
		"above free shipping": {
			items:    []Item{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(3000)}},
			subtotal: 6000, gst: 1080, shipping: 0, total: 7080,
		},
		"threshold is strict": {
			items:    []Item{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(5000)}},
			subtotal: 5000, gst: 900, shipping: 100, total: 6000,
		},
		"promo applied": {
			items:    []Item{{ProductID: "p1", Quantity: 4, UnitPrice: decimal.NewFromInt(500)}},
			promo:    "SAVE10",
			subtotal: 2000, gst: 360, shipping: 100, discount: 200, total: 2260,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeRepo{cartItems: tc.items}
			pub := &fakePublisher{}
			svc := newTestService(repo, &fakeCarts{c: &cart.Cart{ID: "cart-1"}}, pub)

			req := validRequest()
			req.PromoCode = tc.promo
			o, err := svc.Create(context.Background(), "cust-1", req)
			require.NoError(t, err)

			assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(tc.subtotal)), "subtotal %s", o.Subtotal)
			assert.True(t, o.GST.Equal(decimal.NewFromInt(tc.gst)), "gst %s", o.GST)
			assert.True(t, o.Shipping.Equal(decimal.NewFromInt(tc.shipping)), "shipping %s", o.Shipping)
			assert.True(t, o.Discount.Equal(decimal.NewFromInt(tc.discount)), "discount %s", o.Discount)
			assert.True(t, o.Total.Equal(decimal.NewFromInt(tc.total)), "total %s", o.Total)
			assert.Equal(t, StatusPending, o.Status)
			assert.Equal(t, "cart-1", o.CartID)
			assert.Regexp(t, `^ORD-00123456-\d{4}$`, o.OrderNumber)
			require.Len(t, pub.published, 1)

			r := o.Receipt()
			assert.Equal(t, "order-1", r.OrderID)
			assert.Equal(t, "razorpay", r.PaymentMethod)
		})
	}
}

func TestCreateRejectsInvalidInputBeforePricing(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{cartItems: []Item{{Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}}
	svc := newTestService(repo, &fakeCarts{c: &cart.Cart{ID: "cart-1"}}, &fakePublisher{})

	req := validRequest()
	req.City = ""
	req.Pincode = "12345"
	req.PaymentMethod = "barter"

	_, err := svc.Create(context.Background(), "cust-1", req)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "city")
	assert.Contains(t, verr.Fields, "pincode")
	assert.Contains(t, verr.Fields, "paymentMethod")
	assert.False(t, repo.buildCalled)
}

func TestCreateRejectsUnknownPromo(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeCarts{c: &cart.Cart{ID: "cart-1"}}, &fakePublisher{})

	req := validRequest()
	req.PromoCode = "FREESTUFF"
	_, err := svc.Create(context.Background(), "cust-1", req)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "promoCode")
}

func TestCreateEmptyCart(t *testing.T) {
	t.Parallel()

	t.Run("no open cart", func(t *testing.T) {
		svc := newTestService(&fakeRepo{}, &fakeCarts{err: cart.ErrNotFound}, &fakePublisher{})
		_, err := svc.Create(context.Background(), "cust-1", validRequest())
		require.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("cart without lines", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := newTestService(&fakeRepo{cartItems: []Item{}}, &fakeCarts{c: &cart.Cart{ID: "cart-1"}}, pub)
		_, err := svc.Create(context.Background(), "cust-1", validRequest())
		require.ErrorIs(t, err, ErrEmptyCart)
		assert.Empty(t, pub.published)
	})
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{cartItems: []Item{{Quantity: 1, UnitPrice: decimal.NewFromInt(100)}}}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(repo, &fakeCarts{c: &cart.Cart{ID: "cart-1"}}, pub)

	o, err := svc.Create(context.Background(), "cust-1", validRequest())
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestTracking(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		getByNumberFunc: func(ctx context.Context, number string) (*Order, error) {
			if number != "ORD-1-1000" {
				return nil, ErrNotFound
			}
			return &Order{ID: "o1", OrderNumber: number, Status: StatusConfirmed, CreatedAt: created,
				Address: Address{Line: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001"}}, nil
		},
		events: []TrackingEvent{{Status: StatusPending, Note: "Order placed"}, {Status: StatusConfirmed, Note: "Payment received"}},
	}
	svc := newTestService(repo, &fakeCarts{}, &fakePublisher{})

	tr, err := svc.Tracking(context.Background(), " ORD-1-1000 ")
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road, Bengaluru, Karnataka 560001", tr.Address)
	assert.Equal(t, StatusConfirmed, tr.Status)
	assert.Len(t, tr.Events, 2)

	_, err = svc.Tracking(context.Background(), "ORD-0-0000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetForCustomerHidesOtherCustomersOrders(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{getByIDFunc: func(ctx context.Context, orderID string) (*Order, error) {
		return &Order{ID: orderID, CustomerID: "owner"}, nil
	}}
	svc := newTestService(repo, &fakeCarts{}, &fakePublisher{})

	_, err := svc.GetForCustomer(context.Background(), "o1", "intruder")
	require.ErrorIs(t, err, ErrNotFound)

	o, err := svc.GetForCustomer(context.Background(), "o1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
}

func TestUpdateStatusValidates(t *testing.T) {
	t.Parallel()

	var gotNote string
	repo := &fakeRepo{
		updateStatusFunc: func(ctx context.Context, orderID string, to Status, note string) (Status, error) {
			gotNote = note
			return StatusConfirmed, nil
		},
		getByIDFunc: func(ctx context.Context, orderID string) (*Order, error) {
			return &Order{ID: orderID, Status: StatusShipped}, nil
		},
	}
	svc := newTestService(repo, &fakeCarts{}, &fakePublisher{})

	_, err := svc.UpdateStatus(context.Background(), "o1", Status("lost"), "")
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)

	o, err := svc.UpdateStatus(context.Background(), "o1", StatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, "Status changed to shipped", gotNote)
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPaymentFailed.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusShipped))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusDelivered))
}
