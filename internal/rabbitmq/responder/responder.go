package responder

import (
	"encoding/json"
	"sync"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/rabbitmq/channel"
	"github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/messages"
	"github.com/mini-maxit/executor/pkg/solution"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Responder interface {
	// Publish sends a message to the given queue. Publishes from many goroutines
	// are serialized onto the single channel.
	Publish(queueName string, publishing amqp.Publishing) error
	PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error)
	PublishSuccessHandshakeRespond(messageType, messageID, responseQueue string, languages []string) error
	PublishSuccessStatusRespond(
		messageType, messageID, responseQueue string,
		status messages.ResponseWorkerStatusPayload,
	) error
	PublishPayloadRunRespond(
		messageType, messageID, responseQueue string,
		report solution.ExecutionReport,
	) error
	Close() error
}

type publishRequest struct {
	queueName  string
	publishing amqp.Publishing
	result     chan error
}

type responder struct {
	channel     channel.Channel
	publishChan chan publishRequest
	mu          sync.RWMutex
	closed      bool
	done        chan struct{}
	logger      *zap.SugaredLogger
}

func NewResponder(ch channel.Channel, publishChanSize int) Responder {
	if publishChanSize < 1 {
		publishChanSize = 1
	}
	r := &responder{
		channel:     ch,
		publishChan: make(chan publishRequest, publishChanSize),
		done:        make(chan struct{}),
		logger:      logger.NewNamedLogger("responder"),
	}
	go r.publishLoop()
	return r
}

// publishLoop owns the channel; amqp channels are not safe for concurrent publishes.
func (r *responder) publishLoop() {
	defer close(r.done)
	for req := range r.publishChan {
		req.result <- r.channel.Publish("", req.queueName, false, false, req.publishing)
	}
}

func (r *responder) Publish(queueName string, publishing amqp.Publishing) error {
	req := publishRequest{queueName: queueName, publishing: publishing, result: make(chan error, 1)}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return errors.ErrResponderClosed
	}
	r.publishChan <- req
	r.mu.RUnlock()

	return <-req.result
}

// Close stops accepting publishes and waits until the queued ones are sent.
func (r *responder) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.publishChan)
	}
	r.mu.Unlock()
	<-r.done
	return nil
}

func (r *responder) PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error) {
	payload, jsonErr := json.Marshal(map[string]string{"error": err.Error()})
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal error payload: %s", jsonErr)
		return
	}

	if pubErr := r.publishRespondMessage(messageType, messageID, responseQueue, false, payload); pubErr != nil {
		r.logger.Errorf("Failed to publish error message: %s [MsgID: %s]", pubErr, messageID)
		return
	}
	r.logger.Infof("Published error message to %s [MsgID: %s]", responseQueue, messageID)
}

func (r *responder) PublishSuccessHandshakeRespond(
	messageType, messageID, responseQueue string,
	languages []string,
) error {
	payload, err := json.Marshal(messages.ResponseHandshakePayload{Languages: languages})
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, responseQueue, true, payload)
}

func (r *responder) PublishSuccessStatusRespond(
	messageType, messageID, responseQueue string,
	status messages.ResponseWorkerStatusPayload,
) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, responseQueue, true, payload)
}

func (r *responder) PublishPayloadRunRespond(
	messageType, messageID, responseQueue string,
	report solution.ExecutionReport,
) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, responseQueue, true, payload)
}

func (r *responder) publishRespondMessage(
	messageType, messageID, responseQueue string,
	ok bool,
	payload []byte,
) error {
	body, err := json.Marshal(messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        ok,
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	return r.Publish(responseQueue, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          body,
	})
}
