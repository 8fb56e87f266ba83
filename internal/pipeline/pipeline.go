package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/rabbitmq/responder"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/pkg/solution"
	"go.uber.org/zap"
)

// Worker is one request slot of the scheduler. It runs a request through the
// service and publishes the report.
type Worker interface {
	ProcessTask(messageID, responseQueue string, req *solution.ExecutionRequest)
	GetStatus() constants.WorkerStatus
	UpdateStatus(status constants.WorkerStatus)
	GetProcessingMessageID() string
	GetId() int
}

type worker struct {
	id                  int
	mu                  sync.Mutex
	status              constants.WorkerStatus
	processingMessageID string
	service             Service
	responder           responder.Responder
	logger              *zap.SugaredLogger
}

func NewWorker(id int, service Service, responder responder.Responder) Worker {
	return &worker{
		id:        id,
		status:    constants.WorkerStatusIdle,
		service:   service,
		responder: responder,
		logger:    logger.NewNamedLogger(fmt.Sprintf("worker-%d", id)),
	}
}

func (ws *worker) GetId() int {
	return ws.id
}

func (ws *worker) GetStatus() constants.WorkerStatus {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.status
}

func (ws *worker) UpdateStatus(status constants.WorkerStatus) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.status = status
}

func (ws *worker) GetProcessingMessageID() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.processingMessageID
}

func (ws *worker) setProcessingMessageID(messageID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.processingMessageID = messageID
}

func (ws *worker) ProcessTask(messageID, responseQueue string, req *solution.ExecutionRequest) {
	ws.logger.Infof("Processing run request [MsgID: %s]", messageID)
	ws.setProcessingMessageID(messageID)
	defer ws.setProcessingMessageID("")

	defer func() {
		if r := recover(); r != nil {
			ws.logger.Errorf("Recovered from panic: %v [MsgID: %s]", r, messageID)
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			ws.responder.PublishErrorToResponseQueue(constants.QueueMessageTypeRun, messageID, responseQueue, err)
		}
	}()

	if req.SubmissionID == "" {
		req.SubmissionID = messageID
	}
	report := ws.service.Execute(context.Background(), req)

	err := ws.responder.PublishPayloadRunRespond(constants.QueueMessageTypeRun, messageID, responseQueue, report)
	if err != nil {
		ws.logger.Errorf("Failed to publish report: %s [MsgID: %s]", err, messageID)
		ws.responder.PublishErrorToResponseQueue(constants.QueueMessageTypeRun, messageID, responseQueue, err)
		return
	}
	ws.logger.Infof("Finished processing run request with %s [MsgID: %s]", report.Verdict, messageID)
}
