package engine

import (
	"context"
	"time"

	"github.com/mediakit/mediakit/errors"
)

// workerPool bounds the number of stages executing at once. A zero
// MaxWait blocks until a slot frees or the context is cancelled; a
// positive MaxWait fails acquisition with ErrCodeWorkerPoolExhausted
// after waiting that long.
type workerPool struct {
	sem     chan struct{}
	maxWait time.Duration
}

func newWorkerPool(size int, maxWait time.Duration) *workerPool {
	if size <= 0 {
		size = 1
	}
	return &workerPool{
		sem:     make(chan struct{}, size),
		maxWait: maxWait,
	}
}

// acquire claims a worker slot. Callers must release exactly once per
// successful acquire.
func (p *workerPool) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	default:
	}

	if p.maxWait <= 0 {
		select {
		case p.sem <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	timer := time.NewTimer(p.maxWait)
	defer timer.Stop()

	select {
	case p.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return errors.New(errors.ErrCodeWorkerPoolExhausted, "no worker available within wait budget")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *workerPool) release() {
	<-p.sem
}

// inUse returns the number of slots currently claimed.
func (p *workerPool) inUse() int {
	return len(p.sem)
}
