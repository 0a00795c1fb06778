package events

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func TestProcessAcksOnSuccess(t *testing.T) {
	t.Parallel()

	ack := &fakeAcknowledger{}
	c := &Consumer{logger: zap.NewNop()}

	var got []byte
	c.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("hi")}, func(_ context.Context, body []byte) error {
		got = body
		return nil
	})

	assert.Equal(t, []byte("hi"), got)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestProcessDeadLettersOnError(t *testing.T) {
	t.Parallel()

	ack := &fakeAcknowledger{}
	c := &Consumer{logger: zap.NewNop()}

	c.process(context.Background(), amqp.Delivery{Acknowledger: ack}, func(context.Context, []byte) error {
		return errors.New("boom")
	})

	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestQueueNames(t *testing.T) {
	t.Parallel()

	b := bindingFor(ServiceName, PaymentSucceededRoutingKey)
	assert.Equal(t, "storefront-service-go.payment.succeeded.v1", b.Queue)
	assert.Equal(t, "storefront-service-go.payment.succeeded.v1.dlq", b.DeadLetter)
	assert.Equal(t, PaymentSucceededRoutingKey, b.RoutingKey)
}
