package pool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mini-maxit/executor/internal/pool"
)

func TestAcquireAndRelease(t *testing.T) {
	p := pool.NewProcessPool(2)

	r1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	r2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if st := p.GetStatus(); st.Busy != 2 || st.Total != 2 {
		t.Fatalf("unexpected status %+v", st)
	}

	r1()
	r1() // second call is a no-op
	if st := p.GetStatus(); st.Busy != 1 {
		t.Fatalf("expected 1 busy slot, got %+v", st)
	}
	r2()
	if st := p.GetStatus(); st.Busy != 0 {
		t.Fatalf("expected idle pool, got %+v", st)
	}
}

func TestAcquireHonoursContext(t *testing.T) {
	p := pool.NewProcessPool(1)
	release, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPoolNeverExceedsSize(t *testing.T) {
	const size = 3
	p := pool.NewProcessPool(size)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := p.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer release()

			n := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
		}()
	}
	wg.Wait()

	if peak > size {
		t.Fatalf("observed %d concurrent holders, pool size is %d", peak, size)
	}
}

func TestZeroSizeFallsBackToOne(t *testing.T) {
	if st := pool.NewProcessPool(0).GetStatus(); st.Total != 1 {
		t.Fatalf("expected size 1, got %+v", st)
	}
}
