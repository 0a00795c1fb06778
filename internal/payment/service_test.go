package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

type fakeOrders struct {
	orders      map[string]*order.Order
	transitions []order.Status
	err         error
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetByGatewayOrderID(_ context.Context, gw string) (*order.Order, error) {
	for _, o := range f.orders {
		if o.GatewayOrderID == gw {
			cp := *o
			return &cp, nil
		}
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrders) SetGatewayOrderID(_ context.Context, id, gw string) error {
	f.orders[id].GatewayOrderID = gw
	return nil
}

func (f *fakeOrders) Items(context.Context, string) ([]order.Item, error) {
	return []order.Item{{ProductID: "p1", Name: "Cement", SKU: "CEM-1", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)}}, nil
}

func (f *fakeOrders) Transition(_ context.Context, _ db.Querier, id string, to order.Status, _ string) (order.Status, error) {
	if f.err != nil {
		return "", f.err
	}
	o := f.orders[id]
	from := o.Status
	if !from.CanTransitionTo(to) {
		return from, order.ErrInvalidTransition
	}
	o.Status = to
	f.transitions = append(f.transitions, to)
	return from, nil
}

type fakeCustomers struct{}

func (fakeCustomers) GetByID(_ context.Context, id string) (*auth.Customer, error) {
	return &auth.Customer{ID: id, FullName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"}, nil
}

type fakeLogs struct {
	seen map[string]bool
	logs []Log
}

func (f *fakeLogs) Insert(_ context.Context, _ db.Querier, l Log) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := l.TransactionID + "/" + string(l.Status)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.logs = append(f.logs, l)
	return true, nil
}

func (f *fakeLogs) Latest(_ context.Context, orderID string) (*Log, error) {
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].OrderID == orderID {
			return &f.logs[i], nil
		}
	}
	return nil, ErrNoLog
}

func (f *fakeLogs) LatestWithStatus(_ context.Context, orderID string, status LogStatus) (*Log, error) {
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].OrderID == orderID && f.logs[i].Status == status {
			return &f.logs[i], nil
		}
	}
	return nil, ErrNoLog
}

type fakeGateway struct {
	amount int64
	err    error
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (GatewayOrder, error) {
	if f.err != nil {
		return GatewayOrder{}, f.err
	}
	f.amount = amount
	return GatewayOrder{ID: "order_gw1", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

type fakePublisher struct {
	succeeded []events.PaymentSucceededPayload
	failed    []events.PaymentFailedPayload
}

func (f *fakePublisher) PublishPaymentSucceeded(_ context.Context, p events.PaymentSucceededPayload) error {
	f.succeeded = append(f.succeeded, p)
	return nil
}

func (f *fakePublisher) PublishPaymentFailed(_ context.Context, p events.PaymentFailedPayload) error {
	f.failed = append(f.failed, p)
	return nil
}

var testKeys = Keys{KeyID: "rzp_key", KeySecret: "key_secret", WebhookSecret: "hook_secret"}

type fixture struct {
	svc    *Service
	mock   pgxmock.PgxPoolIface
	orders *fakeOrders
	logs   *fakeLogs
	gw     *fakeGateway
	pub    *fakePublisher
}

func newFixture(t *testing.T, status order.Status) *fixture {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	f := &fixture{
		mock: mock,
		orders: &fakeOrders{orders: map[string]*order.Order{
			"o1": {ID: "o1", OrderNumber: "ORD-1", CustomerID: "cust-1", Total: decimal.NewFromInt(5410), Status: status},
		}},
		logs: &fakeLogs{},
		gw:   &fakeGateway{},
		pub:  &fakePublisher{},
	}
	f.svc = NewService(mock, f.orders, fakeCustomers{}, f.logs, f.gw, f.pub, testKeys, zap.NewNop())
	return f
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)

	co, err := f.svc.CreateOrder(context.Background(), "cust-1", "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(541000), co.Amount)
	assert.Equal(t, int64(541000), f.gw.amount)
	assert.Equal(t, "order_gw1", co.GatewayOrderID)
	assert.Equal(t, "rzp_key", co.KeyID)
	assert.Equal(t, "INR", co.Currency)
	assert.Equal(t, "asha@example.com", co.Email)
	assert.Equal(t, "order_gw1", f.orders.orders["o1"].GatewayOrderID)
}

func TestCreateOrderRejects(t *testing.T) {
	t.Parallel()

	t.Run("other customer", func(t *testing.T) {
		f := newFixture(t, order.StatusPending)
		_, err := f.svc.CreateOrder(context.Background(), "cust-2", "o1")
		assert.ErrorIs(t, err, order.ErrNotFound)
	})
	t.Run("already paid", func(t *testing.T) {
		f := newFixture(t, order.StatusConfirmed)
		_, err := f.svc.CreateOrder(context.Background(), "cust-1", "o1")
		assert.ErrorIs(t, err, ErrNotPayable)
	})
	t.Run("missing id", func(t *testing.T) {
		f := newFixture(t, order.StatusPending)
		_, err := f.svc.CreateOrder(context.Background(), "cust-1", " ")
		var verr *validate.Error
		assert.ErrorAs(t, err, &verr)
	})
	t.Run("gateway down", func(t *testing.T) {
		f := newFixture(t, order.StatusPending)
		f.gw.err = errors.New("timeout")
		_, err := f.svc.CreateOrder(context.Background(), "cust-1", "o1")
		assert.Error(t, err)
		assert.Empty(t, f.orders.orders["o1"].GatewayOrderID)
	})
}

func verifyRequest(paymentID string) VerifyRequest {
	return VerifyRequest{
		OrderID:        "o1",
		GatewayOrderID: "order_gw1",
		PaymentID:      paymentID,
		Signature:      Sign(testKeys.KeySecret, "order_gw1|"+paymentID),
	}
}

func TestVerifyConfirmsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.Verify(context.Background(), "cust-1", verifyRequest("pay_1"))
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, order.StatusConfirmed, res.Status)

	again, err := f.svc.Verify(context.Background(), "cust-1", verifyRequest("pay_1"))
	require.NoError(t, err)
	assert.True(t, again.Replayed)

	assert.Equal(t, []order.Status{order.StatusConfirmed}, f.orders.transitions)
	require.Len(t, f.pub.succeeded, 1)
	assert.Equal(t, "pay_1", f.pub.succeeded[0].PaymentID)
	assert.True(t, f.pub.succeeded[0].Amount.Equal(decimal.NewFromInt(5410)))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyReplayReportsCurrentStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Verify(context.Background(), "cust-1", verifyRequest("pay_1"))
	require.NoError(t, err)

	f.orders.orders["o1"].Status = order.StatusShipped

	again, err := f.svc.Verify(context.Background(), "cust-1", verifyRequest("pay_1"))
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, order.StatusShipped, again.Status)
	assert.Len(t, f.pub.succeeded, 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"

	req := verifyRequest("pay_1")
	req.Signature = Sign("wrong", "order_gw1|pay_1")
	_, err := f.svc.Verify(context.Background(), "cust-1", req)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	req = verifyRequest("pay_1")
	req.GatewayOrderID = "order_other"
	req.Signature = Sign(testKeys.KeySecret, "order_other|pay_1")
	_, err = f.svc.Verify(context.Background(), "cust-1", req)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	assert.Empty(t, f.logs.logs)
	assert.Empty(t, f.pub.succeeded)
}

func TestVerifyRollsBackOnInvalidTransition(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusCancelled)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Verify(context.Background(), "cust-1", verifyRequest("pay_1"))
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Empty(t, f.pub.succeeded)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func webhookBody(event string) []byte {
	return []byte(`{"event":"` + event + `","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_gw1","amount":541000,"status":"failed","error_description":"Card declined"}}}}`)
}

func TestWebhookPaymentFailed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	body := webhookBody("payment.failed")
	require.NoError(t, f.svc.HandleWebhook(context.Background(), body, Sign(testKeys.WebhookSecret, string(body))))
	require.NoError(t, f.svc.HandleWebhook(context.Background(), body, Sign(testKeys.WebhookSecret, string(body))))

	assert.Equal(t, order.StatusPaymentFailed, f.orders.orders["o1"].Status)
	require.Len(t, f.logs.logs, 1)
	assert.Equal(t, LogFailed, f.logs.logs[0].Status)
	assert.Equal(t, "Card declined", f.logs.logs[0].Metadata["reason"])
	assert.True(t, f.logs.logs[0].Amount.Equal(decimal.NewFromInt(5410)))
	require.Len(t, f.pub.failed, 1)
	assert.Equal(t, "Card declined", f.pub.failed[0].Reason)
}

func TestWebhookFailureAfterConfirmationKeepsOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusShipped)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	body := webhookBody("payment.failed")
	require.NoError(t, f.svc.HandleWebhook(context.Background(), body, Sign(testKeys.WebhookSecret, string(body))))
	assert.Equal(t, order.StatusShipped, f.orders.orders["o1"].Status)
	assert.Len(t, f.logs.logs, 1)
}

func TestWebhookCapturedIsLogged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusConfirmed)
	f.orders.orders["o1"].GatewayOrderID = "order_gw1"
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	body := webhookBody("payment.captured")
	require.NoError(t, f.svc.HandleWebhook(context.Background(), body, Sign(testKeys.WebhookSecret, string(body))))
	require.Len(t, f.logs.logs, 1)
	assert.Equal(t, LogCaptured, f.logs.logs[0].Status)
	assert.Empty(t, f.orders.transitions)
	assert.Empty(t, f.pub.failed)
}

func TestWebhookRejectsSignatureAndIgnoresUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)
	body := webhookBody("payment.failed")

	err := f.svc.HandleWebhook(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidWebhookSignature)

	other := webhookBody("refund.created")
	assert.NoError(t, f.svc.HandleWebhook(context.Background(), other, Sign(testKeys.WebhookSecret, string(other))))

	// no order carries order_gw1 yet
	assert.NoError(t, f.svc.HandleWebhook(context.Background(), body, Sign(testKeys.WebhookSecret, string(body))))
	assert.Empty(t, f.logs.logs)
}

func TestStatusAndInvoice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.StatusPending)

	st, err := f.svc.Status(context.Background(), "cust-1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "pending", st.PaymentStatus)

	f.logs.logs = append(f.logs.logs,
		Log{OrderID: "o1", TransactionID: "pay_1", Status: LogSuccess},
		Log{OrderID: "o1", TransactionID: "pay_1", Status: LogCaptured},
	)
	st, err = f.svc.Status(context.Background(), "cust-1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "captured", st.PaymentStatus)
	assert.Equal(t, "pay_1", st.TransactionID)

	inv, err := f.svc.Invoice(context.Background(), "cust-1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", inv.TransactionID)
	assert.Equal(t, "Asha Rao", inv.Customer.Name)
	require.Len(t, inv.Items, 1)

	_, err = f.svc.Invoice(context.Background(), "cust-2", "o1")
	assert.ErrorIs(t, err, order.ErrNotFound)
}
