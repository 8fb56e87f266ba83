// Package pool bounds the number of sandboxed processes alive at once across
// every request handled by the service.
package pool

import (
	"context"
	"sync"

	"github.com/mini-maxit/executor/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type ProcessPool interface {
	// Acquire blocks until a slot is free or ctx is done. The returned release
	// func is idempotent.
	Acquire(ctx context.Context) (release func(), err error)
	GetStatus() Status
}

type Status struct {
	Busy  int64 `json:"busy"`
	Total int64 `json:"total"`
}

type processPool struct {
	sem    *semaphore.Weighted
	size   int64
	mu     sync.Mutex
	busy   int64
	logger *zap.SugaredLogger
}

func NewProcessPool(size int64) ProcessPool {
	if size < 1 {
		size = 1
	}
	return &processPool{
		sem:    semaphore.NewWeighted(size),
		size:   size,
		logger: logger.NewNamedLogger("process-pool"),
	}
}

func (p *processPool) Acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.Warnf("Gave up waiting for a process slot: %s", err)
		return nil, err
	}

	p.mu.Lock()
	p.busy++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.busy--
			p.mu.Unlock()
			p.sem.Release(1)
		})
	}, nil
}

func (p *processPool) GetStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{Busy: p.busy, Total: p.size}
}
