package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/correlation"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type SequenceSource interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type PublisherOptions struct {
	PublishEnveloped bool
	Producer         string
}

type Publisher struct {
	mu               sync.Mutex
	ch               channel
	seq              SequenceSource
	publishEnveloped bool
	producer         string
	now              func() time.Time
}

func NewPublisher(conn *amqp.Connection, seq SequenceSource, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return newPublisher(ch, seq, opts), nil
}

func newPublisher(ch channel, seq SequenceSource, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = ServiceName
	}
	return &Publisher{ch: ch, seq: seq, publishEnveloped: opts.PublishEnveloped, producer: producer, now: time.Now}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	payload := OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CartID:      o.CartID,
		UserID:      o.CustomerID,
		Items:       make([]OrderItem, 0, len(o.Items)),
		TotalAmount: o.Total,
		Timestamp:   o.CreatedAt,
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.UnitPrice})
	}

	if !p.publishEnveloped {
		return p.publishJSON(ctx, OrderCreatedRoutingKey, LegacyOrderCreated{EventType: EventTypeOrderCreated, OrderCreatedPayload: payload})
	}
	return publishEnvelope(ctx, p, OrderCreatedRoutingKey, EventTypeOrderCreated, orderCreatedSchema, o.ID, payload)
}

func (p *Publisher) PublishPaymentSucceeded(ctx context.Context, payload PaymentSucceededPayload) error {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = p.now().UTC()
	}
	if !p.publishEnveloped {
		return p.publishJSON(ctx, PaymentSucceededRoutingKey, LegacyPaymentSucceeded{EventType: EventTypePaymentSucceeded, PaymentSucceededPayload: payload})
	}
	return publishEnvelope(ctx, p, PaymentSucceededRoutingKey, EventTypePaymentSucceeded, paymentSucceededSchema, payload.OrderID, payload)
}

func (p *Publisher) PublishPaymentFailed(ctx context.Context, payload PaymentFailedPayload) error {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = p.now().UTC()
	}
	if !p.publishEnveloped {
		return p.publishJSON(ctx, PaymentFailedRoutingKey, LegacyPaymentFailed{EventType: EventTypePaymentFailed, PaymentFailedPayload: payload})
	}
	return publishEnvelope(ctx, p, PaymentFailedRoutingKey, EventTypePaymentFailed, paymentFailedSchema, payload.OrderID, payload)
}

func publishEnvelope[T any](ctx context.Context, p *Publisher, routingKey, name, schema, partitionKey string, payload T) error {
	seq, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}
	meta := EventMeta{CorrelationID: correlation.FromContext(ctx), PartitionKey: partitionKey}
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.NewString()
	}
	env := EventEnvelope[T]{
		EventName:     name,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      p.producer,
		PartitionKey:  meta.PartitionKey,
		Sequence:      seq,
		OccurredAt:    p.now().UTC(),
		Schema:        schema,
		Payload:       payload,
	}
	return p.publishJSON(ctx, routingKey, env)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: correlation.FromContext(ctx),
			Timestamp:     p.now().UTC(),
			Body:          body,
		},
	)
}
