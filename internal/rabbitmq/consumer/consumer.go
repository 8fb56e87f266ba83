package consumer

import (
	"encoding/json"
	e "errors"
	"fmt"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/metrics"
	"github.com/mini-maxit/executor/internal/rabbitmq/channel"
	"github.com/mini-maxit/executor/internal/rabbitmq/responder"
	"github.com/mini-maxit/executor/internal/scheduler"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/messages"
	"github.com/mini-maxit/executor/pkg/solution"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Consumer interface {
	Listen()
	// Stop cancels the subscription so Listen returns. The channel stays open
	// for publishing results of tasks already scheduled.
	Stop() error
}

type consumer struct {
	channel           channel.Channel
	workerQueueName   string
	responseQueueName string
	scheduler         scheduler.Scheduler
	responder         responder.Responder
	logger            *zap.SugaredLogger
}

func NewConsumer(
	mainChannel channel.Channel,
	workerQueueName string,
	responseQueueName string,
	scheduler scheduler.Scheduler,
	responder responder.Responder,
) Consumer {
	return &consumer{
		channel:           mainChannel,
		workerQueueName:   workerQueueName,
		responseQueueName: responseQueueName,
		scheduler:         scheduler,
		responder:         responder,
		logger:            logger.NewNamedLogger("consumer"),
	}
}

// Listen blocks until the delivery channel is closed.
func (c *consumer) Listen() {
	c.logger.Infof("Declaring queue %s", c.workerQueueName)

	args := make(amqp.Table)
	args["x-max-priority"] = constants.RabbitMQMaxPriority
	_, err := c.channel.QueueDeclare(c.workerQueueName, true, false, false, false, args)
	if err != nil {
		c.logger.Panicf("Failed to declare queue %s: %s", c.workerQueueName, err)
	}

	if c.responseQueueName != "" {
		if _, err := c.channel.QueueDeclare(c.responseQueueName, true, false, false, false, nil); err != nil {
			c.logger.Panicf("Failed to declare queue %s: %s", c.responseQueueName, err)
		}
	}

	c.logger.Infof("Listening for messages on queue %s", c.workerQueueName)

	msgs, err := c.channel.Consume(c.workerQueueName, constants.RabbitMQConsumerTag, true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to consume messages from queue %s: %s", c.workerQueueName, err)
	}

	for msg := range msgs {
		c.processMessage(msg)
	}
	c.logger.Info("Delivery channel closed, stopped listening")
}

func (c *consumer) Stop() error {
	c.logger.Info("Cancelling subscription")
	return c.channel.Cancel(constants.RabbitMQConsumerTag, false)
}

func (c *consumer) processMessage(msg amqp.Delivery) {
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = c.responseQueueName
	}

	var queueMessage messages.QueueMessage
	if err := json.Unmarshal(msg.Body, &queueMessage); err != nil {
		c.logger.Errorf("Failed to unmarshal message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		return
	}

	switch queueMessage.Type {
	case constants.QueueMessageTypeRun:
		c.logger.Infof("Received run message [MsgID: %s]", queueMessage.MessageID)
		c.handleRunMessage(queueMessage, replyTo)
	case constants.QueueMessageTypeStatus:
		c.logger.Infof("Received status message [MsgID: %s]", queueMessage.MessageID)
		c.handleStatusMessage(queueMessage, replyTo)
	case constants.QueueMessageTypeHandshake:
		c.logger.Infof("Received handshake message [MsgID: %s]", queueMessage.MessageID)
		c.handleHandshakeMessage(queueMessage, replyTo)
	default:
		c.logger.Errorf("Unknown message type: %s", queueMessage.Type)
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			replyTo,
			errors.ErrUnknownMessageType)
	}
}

func (c *consumer) requeueWithPriority(msg messages.QueueMessage, replyTo string) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return c.responder.Publish(c.workerQueueName, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: msg.MessageID,
		ReplyTo:       replyTo,
		Body:          body,
		Priority:      uint8(constants.RabbitMQRequeuePriority),
	})
}

func (c *consumer) handleRunMessage(queueMessage messages.QueueMessage, replyTo string) {
	var req solution.ExecutionRequest
	if err := json.Unmarshal(queueMessage.Payload, &req); err != nil {
		c.logger.Errorf("Failed to unmarshal run request: %s [MsgID: %s]", err, queueMessage.MessageID)
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			replyTo,
			fmt.Errorf("invalid run request: %w", err))
		return
	}

	err := c.scheduler.ProcessTask(replyTo, queueMessage.MessageID, &req)
	if err == nil {
		return
	}

	if e.Is(err, errors.ErrFailedToGetFreeWorker) {
		metrics.RequeuedMessages.Inc()
		if requeueErr := c.requeueWithPriority(queueMessage, replyTo); requeueErr != nil {
			c.logger.Errorf("Failed to requeue run request: %s [MsgID: %s]", requeueErr, queueMessage.MessageID)
			c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, requeueErr)
		}
		return
	}

	c.logger.Errorf("Failed to process run request: %s [MsgID: %s]", err, queueMessage.MessageID)
	c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
}

func (c *consumer) handleStatusMessage(queueMessage messages.QueueMessage, replyTo string) {
	status := c.scheduler.GetWorkersStatus()

	err := c.responder.PublishSuccessStatusRespond(queueMessage.Type, queueMessage.MessageID, replyTo, status)
	if err != nil {
		c.logger.Errorf("Failed to publish status message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
}

func (c *consumer) handleHandshakeMessage(queueMessage messages.QueueMessage, replyTo string) {
	languages := c.scheduler.GetSupportedLanguages()

	err := c.responder.PublishSuccessHandshakeRespond(queueMessage.Type, queueMessage.MessageID, replyTo, languages)
	if err != nil {
		c.logger.Errorf("Failed to publish supported languages: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
}
