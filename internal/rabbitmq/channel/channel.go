package channel

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the consumer and responder rely on, so
// that both can be tested without a broker.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp.Table) (<-chan amqp.Delivery, error)
	// Cancel stops deliveries to the named consumer and closes its delivery
	// channel. Publishing on the channel keeps working.
	Cancel(consumer string, noWait bool) error
	// Close ends the delivery channel returned by Consume.
	Close() error
}

type AmqpChannel struct {
	ch *amqp.Channel
}

func NewAmqpChannel(ch *amqp.Channel) *AmqpChannel { return &AmqpChannel{ch: ch} }

func (a *AmqpChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return a.ch.Publish(exchange, key, mandatory, immediate, msg)
}

func (a *AmqpChannel) QueueDeclare(name string,
	durable, autoDelete, exclusive, noWait bool,
	args amqp.Table) (amqp.Queue, error) {
	return a.ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (a *AmqpChannel) Consume(queue, consumer string,
	autoAck, exclusive, noLocal, noWait bool,
	args amqp.Table) (<-chan amqp.Delivery, error) {
	return a.ch.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
}

func (a *AmqpChannel) Cancel(consumer string, noWait bool) error {
	return a.ch.Cancel(consumer, noWait)
}

func (a *AmqpChannel) Close() error {
	if a.ch.IsClosed() {
		return nil
	}
	return a.ch.Close()
}
