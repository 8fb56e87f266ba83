package consumer

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/mock/gomock"

	"github.com/mini-maxit/executor/pkg/constants"
	pkgerrors "github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/messages"
	"github.com/mini-maxit/executor/pkg/solution"
	mocks "github.com/mini-maxit/executor/tests/mocks"
)

const (
	workerQueue   = "worker_queue_test"
	responseQueue = "response_queue_test"
)

func runDelivery(t *testing.T, messageID, replyTo string, req solution.ExecutionRequest) amqp.Delivery {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	body, err := json.Marshal(messages.QueueMessage{Type: constants.QueueMessageTypeRun, MessageID: messageID, Payload: payload})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return amqp.Delivery{Body: body, ReplyTo: replyTo}
}

func TestProcessMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockScheduler := mocks.NewMockScheduler(ctrl)
	mockResponder := mocks.NewMockResponder(ctrl)

	c := NewConsumer(nil, workerQueue, responseQueue, mockScheduler, mockResponder).(*consumer)

	t.Run("invalid json", func(t *testing.T) {
		mockResponder.EXPECT().PublishErrorToResponseQueue("", "", "reply", gomock.Any()).Times(1)

		c.processMessage(amqp.Delivery{Body: []byte("not json"), ReplyTo: "reply"})
	})

	t.Run("unknown type", func(t *testing.T) {
		b, _ := json.Marshal(messages.QueueMessage{Type: "foo", MessageID: "mid"})

		mockResponder.EXPECT().PublishErrorToResponseQueue("foo", "mid", "reply", pkgerrors.ErrUnknownMessageType).Times(1)

		c.processMessage(amqp.Delivery{Body: b, ReplyTo: "reply"})
	})

	t.Run("run success", func(t *testing.T) {
		mockScheduler.EXPECT().ProcessTask("reply", "run-id-1", gomock.AssignableToTypeOf(&solution.ExecutionRequest{})).
			Do(func(_ string, _ string, req *solution.ExecutionRequest) {
				if req.Language != "python" || len(req.TestCases) != 1 {
					t.Fatalf("unexpected request %+v", req)
				}
			}).Return(nil).Times(1)

		c.processMessage(runDelivery(t, "run-id-1", "reply", solution.ExecutionRequest{
			Code:      "def twoSum(nums, target): return [0, 1]",
			Language:  "python",
			TestCases: []solution.TestCase{{Input: "[1,2]\n3", Expected: "[0,1]"}},
		}))
	})

	t.Run("run without reply to uses the response queue", func(t *testing.T) {
		mockScheduler.EXPECT().ProcessTask(responseQueue, "run-id-2", gomock.Any()).Return(nil).Times(1)

		c.processMessage(runDelivery(t, "run-id-2", "", solution.ExecutionRequest{Language: "python"}))
	})

	t.Run("malformed run payload", func(t *testing.T) {
		b, _ := json.Marshal(messages.QueueMessage{
			Type:      constants.QueueMessageTypeRun,
			MessageID: "run-id-3",
			Payload:   json.RawMessage(`{"test_cases": "nope"}`),
		})

		mockResponder.EXPECT().PublishErrorToResponseQueue(constants.QueueMessageTypeRun, "run-id-3", "reply", gomock.Any()).Times(1)

		c.processMessage(amqp.Delivery{Body: b, ReplyTo: "reply"})
	})

	t.Run("run requeue when no worker", func(t *testing.T) {
		mockScheduler.EXPECT().ProcessTask("reply", "run-id-4", gomock.Any()).
			Return(pkgerrors.ErrFailedToGetFreeWorker).Times(1)

		mockResponder.EXPECT().Publish(workerQueue, gomock.AssignableToTypeOf(amqp.Publishing{})).
			Do(func(_ string, p amqp.Publishing) {
				if p.Priority != uint8(constants.RabbitMQRequeuePriority) {
					t.Fatalf("expected Priority to be %d got %d", constants.RabbitMQRequeuePriority, p.Priority)
				}
				if p.ReplyTo != "reply" {
					t.Fatalf("requeued message must keep its reply queue, got %q", p.ReplyTo)
				}
				var qm messages.QueueMessage
				if err := json.Unmarshal(p.Body, &qm); err != nil || qm.MessageID != "run-id-4" {
					t.Fatalf("unexpected requeued body %s", p.Body)
				}
			}).Return(nil).Times(1)

		c.processMessage(runDelivery(t, "run-id-4", "reply", solution.ExecutionRequest{Language: "cpp"}))
	})

	t.Run("status success", func(t *testing.T) {
		status := messages.ResponseWorkerStatusPayload{BusyWorkers: 1, TotalWorkers: 2}
		b, _ := json.Marshal(messages.QueueMessage{Type: constants.QueueMessageTypeStatus, MessageID: "status-id"})

		mockScheduler.EXPECT().GetWorkersStatus().Return(status).Times(1)
		mockResponder.EXPECT().PublishSuccessStatusRespond(
			constants.QueueMessageTypeStatus, "status-id", "reply", status,
		).Return(nil).Times(1)

		c.processMessage(amqp.Delivery{Body: b, ReplyTo: "reply"})
	})

	t.Run("handshake success", func(t *testing.T) {
		langs := []string{"cpp", "python"}
		b, _ := json.Marshal(messages.QueueMessage{Type: constants.QueueMessageTypeHandshake, MessageID: "hs-id"})

		mockScheduler.EXPECT().GetSupportedLanguages().Return(langs).Times(1)
		mockResponder.EXPECT().PublishSuccessHandshakeRespond(
			constants.QueueMessageTypeHandshake, "hs-id", "reply", langs,
		).Return(nil).Times(1)

		c.processMessage(amqp.Delivery{Body: b, ReplyTo: "reply"})
	})

	t.Run("handshake publish failure", func(t *testing.T) {
		b, _ := json.Marshal(messages.QueueMessage{Type: constants.QueueMessageTypeHandshake, MessageID: "hs-id-2"})
		publishErr := errors.New("closed")

		mockScheduler.EXPECT().GetSupportedLanguages().Return([]string{"cpp"}).Times(1)
		mockResponder.EXPECT().PublishSuccessHandshakeRespond(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(publishErr).Times(1)
		mockResponder.EXPECT().PublishErrorToResponseQueue(constants.QueueMessageTypeHandshake, "hs-id-2", "reply", publishErr).Times(1)

		c.processMessage(amqp.Delivery{Body: b, ReplyTo: "reply"})
	})
}

func TestListen_ProcessRunMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChannel := mocks.NewMockChannel(ctrl)
	mockScheduler := mocks.NewMockScheduler(ctrl)
	mockResponder := mocks.NewMockResponder(ctrl)

	deliveries := make(chan amqp.Delivery)

	mockChannel.EXPECT().QueueDeclare(workerQueue, true, false, false, false, gomock.AssignableToTypeOf(amqp.Table{})).Do(
		func(_ string, _, _, _, _ bool, args amqp.Table) {
			v, ok := args["x-max-priority"]
			if !ok {
				t.Fatalf("expected x-max-priority to be present in args")
			}
			if v != constants.RabbitMQMaxPriority {
				t.Fatalf("expected x-max-priority %v got %v", constants.RabbitMQMaxPriority, v)
			}
		}).Return(amqp.Queue{Name: workerQueue}, nil).Times(1)
	mockChannel.EXPECT().QueueDeclare(responseQueue, true, false, false, false, gomock.Nil()).
		Return(amqp.Queue{Name: responseQueue}, nil).Times(1)
	mockChannel.EXPECT().Consume(workerQueue, constants.RabbitMQConsumerTag, true, false, false, false, nil).
		Return((<-chan amqp.Delivery)(deliveries), nil).Times(1)

	done := make(chan struct{})
	mockScheduler.EXPECT().ProcessTask("reply", "run-id-listen", gomock.Any()).
		Do(func(_ string, _ string, _ *solution.ExecutionRequest) {
			close(done)
		}).Return(nil).Times(1)

	c := NewConsumer(mockChannel, workerQueue, responseQueue, mockScheduler, mockResponder)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Listen()
	}()

	deliveries <- runDelivery(t, "run-id-listen", "reply", solution.ExecutionRequest{Language: "python"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ProcessTask to be called")
	}

	close(deliveries)
	listenDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(listenDone)
	}()
	select {
	case <-listenDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Listen to finish")
	}
}

func TestListen_QueueDeclareErrorPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChannel := mocks.NewMockChannel(ctrl)
	mockChannel.EXPECT().QueueDeclare(workerQueue, true, false, false, false, gomock.Any()).
		Return(amqp.Queue{}, errors.New("queue error")).Times(1)

	c := NewConsumer(mockChannel, workerQueue, "", mocks.NewMockScheduler(ctrl), mocks.NewMockResponder(ctrl))

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Listen to panic on QueueDeclare error")
		}
	}()

	c.Listen()
}

func TestListen_ConsumeErrorPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChannel := mocks.NewMockChannel(ctrl)
	mockChannel.EXPECT().QueueDeclare(workerQueue, true, false, false, false, gomock.Any()).
		Return(amqp.Queue{Name: workerQueue}, nil).Times(1)
	mockChannel.EXPECT().Consume(workerQueue, constants.RabbitMQConsumerTag, true, false, false, false, nil).
		Return((<-chan amqp.Delivery)(nil), errors.New("consume error")).Times(1)

	c := NewConsumer(mockChannel, workerQueue, "", mocks.NewMockScheduler(ctrl), mocks.NewMockResponder(ctrl))

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Listen to panic on Consume error")
		}
	}()

	c.Listen()
}

func TestStop_CancelsSubscription(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChannel := mocks.NewMockChannel(ctrl)
	mockChannel.EXPECT().Cancel(constants.RabbitMQConsumerTag, false).Return(nil).Times(1)
	mockChannel.EXPECT().Close().Times(0)

	c := NewConsumer(mockChannel, workerQueue, "", mocks.NewMockScheduler(ctrl), mocks.NewMockResponder(ctrl))
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
