package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one message body. Returning an error nacks the
// delivery without requeue, which dead-letters it.
type HandlerFunc func(ctx context.Context, body []byte) error

type ConsumerOptions struct {
	Service    string
	RoutingKey string
	Prefetch   int
}

type Consumer struct {
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
	done   chan struct{}
	once   sync.Once
}

// StartConsumer declares <service>.<routingKey> bound to the events exchange
// with a <queue>.dlq dead-letter queue, then consumes with manual acks until
// ctx is cancelled or the channel closes.
func StartConsumer(ctx context.Context, conn *amqp.Connection, opts ConsumerOptions, handler HandlerFunc, logger *zap.Logger) (*Consumer, error) {
	if opts.Service == "" {
		opts.Service = ServiceName
	}
	if opts.Prefetch <= 0 {
		opts.Prefetch = 10
	}
	b := bindingFor(opts.Service, opts.RoutingKey)
	queue := b.Queue

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := declareExchange(ch); err != nil {
		return fail("topology", err)
	}
	if err := b.declare(ch); err != nil {
		return fail("topology", err)
	}
	if err := ch.Qos(opts.Prefetch, 0, false); err != nil {
		return fail("qos", err)
	}

	msgs, err := ch.Consume(
		queue,
		opts.Service, // consumer tag
		false,        // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fail("consume", err)
	}

	c := &Consumer{ch: ch, queue: queue, logger: logger.With(zap.String("queue", queue)), done: make(chan struct{})}
	go c.run(ctx, msgs, handler)
	return c, nil
}

func (c *Consumer) run(ctx context.Context, msgs <-chan amqp.Delivery, handler HandlerFunc) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping consumer")
			return
		case d, ok := <-msgs:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			c.process(ctx, d, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery, handler HandlerFunc) {
	if err := handler(ctx, d.Body); err != nil {
		c.logger.Error("handle message failed, dead-lettering",
			zap.String("messageId", d.MessageId), zap.String("correlationId", d.CorrelationId), zap.Error(err))
		if nerr := d.Nack(false, false); nerr != nil {
			c.logger.Error("nack failed", zap.Error(nerr))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.logger.Error("ack failed", zap.Error(err))
	}
}

// Done is closed once the consume loop has exited.
func (c *Consumer) Done() <-chan struct{} { return c.done }

func (c *Consumer) Close() error {
	var err error
	c.once.Do(func() { err = c.ch.Close() })
	return err
}
