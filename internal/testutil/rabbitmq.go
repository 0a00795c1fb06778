package testutil

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRabbitMQ returns a connection to a fresh broker.
func StartRabbitMQ(t *testing.T) *amqp.Connection {
	t.Helper()

	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
	})

	// the port opens before the broker accepts AMQP handshakes
	var conn *amqp.Connection
	require.Eventually(t, func() bool {
		var err error
		conn, err = amqp.DialConfig("amqp://guest:guest@"+addr+"/", amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
		return err == nil
	}, 60*time.Second, time.Second, "broker never accepted connections")
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// Subscribe binds an exclusive auto-delete queue to exchange/routingKey and
// returns its deliveries, so tests can observe what the service publishes.
// The exchange must already exist.
func Subscribe(t *testing.T, conn *amqp.Connection, exchange, routingKey string) <-chan amqp.Delivery {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, routingKey, exchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}
