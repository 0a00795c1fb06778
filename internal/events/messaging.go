package events

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange             = "ecommerce.events"
	OrderCreatedRoutingKey     = "order.created.v1"
	PaymentSucceededRoutingKey = "payment.succeeded.v1"
	PaymentFailedRoutingKey    = "payment.failed.v1"
	ServiceName                = "storefront-service-go"

	heartbeat = 10 * time.Second
)

// binding names the durable queue a service consumes one routing key from,
// along with the queue its rejected deliveries land in.
type binding struct {
	Queue      string
	DeadLetter string
	RoutingKey string
}

func bindingFor(service, routingKey string) binding {
	queue := service + "." + routingKey
	return binding{Queue: queue, DeadLetter: queue + ".dlq", RoutingKey: routingKey}
}

// declare sets up the dead-letter queue first so the main queue can point at
// it through the default exchange.
func (b binding) declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(b.DeadLetter, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", b.DeadLetter, err)
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": b.DeadLetter,
	}
	if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare %s: %w", b.Queue, err)
	}
	if err := ch.QueueBind(b.Queue, b.RoutingKey, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", b.Queue, err)
	}
	return nil
}

func declareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	return nil
}

// Dial opens a broker connection labelled with the service name so it can be
// told apart in the management UI.
func Dial(url string) (*amqp.Connection, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(ServiceName)

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  heartbeat,
		Properties: props,
		Dial:       amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}
