package rabbitmq

import (
	"time"

	"github.com/mini-maxit/executor/internal/config"
	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/rabbitmq/channel"
	"github.com/mini-maxit/executor/pkg/constants"
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewRabbitMqConnection dials the broker, retrying while it comes up. It exits the
// process when the broker stays unreachable.
func NewRabbitMqConnection(cfg *config.Config) *amqp.Connection {
	logger := logger.NewNamedLogger("rabbitmq")

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= constants.RabbitMQReconnectTries; attempt++ {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err == nil {
			logger.Infof("Connected to RabbitMQ after %d attempt(s)", attempt)
			return conn
		}
		lastErr = err
		logger.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %s", attempt, constants.RabbitMQReconnectTries, err)
		time.Sleep(backoff)
		backoff = min(backoff*2, 10*time.Second)
	}

	logger.Fatalf("Failed to connect to RabbitMQ: %s", lastErr)
	return nil
}

func NewRabbitMQChannel(conn *amqp.Connection) channel.Channel {
	logger := logger.NewNamedLogger("rabbitmq")

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("Failed to open a channel: %s", err)
	}
	return channel.NewAmqpChannel(ch)
}
