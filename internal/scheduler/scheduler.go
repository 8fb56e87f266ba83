package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/internal/pipeline"
	"github.com/mini-maxit/executor/internal/pool"
	"github.com/mini-maxit/executor/internal/rabbitmq/responder"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/pkg/errors"
	"github.com/mini-maxit/executor/pkg/languages"
	"github.com/mini-maxit/executor/pkg/messages"
	"github.com/mini-maxit/executor/pkg/solution"
	"go.uber.org/zap"
)

// Scheduler hands run requests to a fixed set of worker slots. Processes spawned
// by those requests are bounded separately by the process pool.
type Scheduler interface {
	GetWorkersStatus() messages.ResponseWorkerStatusPayload
	ProcessTask(responseQueueName, messageID string, req *solution.ExecutionRequest) error
	GetSupportedLanguages() []string
	// Wait blocks until every task handed to a worker has finished, or ctx is done.
	// No task may be scheduled once Wait has been called.
	Wait(ctx context.Context) error
}

type scheduler struct {
	mu               sync.Mutex
	inFlight         sync.WaitGroup
	busyWorkersCount int
	workers          map[int]pipeline.Worker
	maxWorkers       int
	processPool      pool.ProcessPool
	toolchains       languages.Toolchains
	logger           *zap.SugaredLogger
}

func NewScheduler(
	maxWorkers int,
	service pipeline.Service,
	responder responder.Responder,
	processPool pool.ProcessPool,
	toolchains languages.Toolchains,
) Scheduler {
	workers := make(map[int]pipeline.Worker, maxWorkers)
	for i := range maxWorkers {
		workers[i] = pipeline.NewWorker(i, service, responder)
	}
	return NewSchedulerWithWorkers(maxWorkers, workers, processPool, toolchains)
}

// NewSchedulerWithWorkers builds a scheduler over existing workers.
func NewSchedulerWithWorkers(
	maxWorkers int,
	workers map[int]pipeline.Worker,
	processPool pool.ProcessPool,
	toolchains languages.Toolchains,
) Scheduler {
	return &scheduler{
		workers:     workers,
		maxWorkers:  maxWorkers,
		processPool: processPool,
		toolchains:  toolchains,
		logger:      logger.NewNamedLogger("scheduler"),
	}
}

func (s *scheduler) GetWorkersStatus() messages.ResponseWorkerStatusPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]messages.WorkerStatus, 0, len(s.workers))
	for id, worker := range s.workers {
		status := messages.WorkerStatus{WorkerID: id, Status: worker.GetStatus()}
		if status.Status == constants.WorkerStatusBusy {
			status.ProcessingMessageID = worker.GetProcessingMessageID()
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].WorkerID < statuses[j].WorkerID })

	payload := messages.ResponseWorkerStatusPayload{
		BusyWorkers:  s.busyWorkersCount,
		TotalWorkers: s.maxWorkers,
		WorkerStatus: statuses,
	}
	if s.processPool != nil {
		ps := s.processPool.GetStatus()
		payload.Processes = messages.ProcessPoolStatus{Busy: ps.Busy, Total: ps.Total}
	}
	return payload
}

func (s *scheduler) getFreeWorker() (pipeline.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, worker := range s.workers {
		if worker.GetStatus() == constants.WorkerStatusIdle {
			worker.UpdateStatus(constants.WorkerStatusBusy)
			s.busyWorkersCount++
			return worker, nil
		}
	}

	return nil, errors.ErrFailedToGetFreeWorker
}

func (s *scheduler) ProcessTask(responseQueueName, messageID string, req *solution.ExecutionRequest) error {
	s.logger.Infof("Scheduling run request [MsgID: %s]", messageID)

	worker, err := s.getFreeWorker()
	if err != nil {
		s.logger.Warnf("No available workers [MsgID: %s]", messageID)
		return err
	}

	s.inFlight.Add(1)
	go func(w pipeline.Worker) {
		defer s.inFlight.Done()
		defer s.markWorkerAsIdle(w)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Worker panicked: %v [MsgID: %s]", r, messageID)
			}
		}()

		w.ProcessTask(messageID, responseQueueName, req)
	}(worker)

	return nil
}

func (s *scheduler) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		busy := s.busyWorkersCount
		s.mu.Unlock()
		s.logger.Warnf("Stopped waiting with %d workers still busy", busy)
		return ctx.Err()
	}
}

func (s *scheduler) markWorkerAsIdle(worker pipeline.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker.UpdateStatus(constants.WorkerStatusIdle)
	s.busyWorkersCount--

	s.logger.Infof("Worker marked as idle [WorkerID: %d]", worker.GetId())
}

// GetSupportedLanguages lists the languages this instance has a toolchain for.
func (s *scheduler) GetSupportedLanguages() []string {
	names := make([]string, 0, len(s.toolchains))
	for lt := range s.toolchains {
		names = append(names, lt.String())
	}
	sort.Strings(names)
	return names
}
