package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mediakit/mediakit/errors"
)

func TestWorkerPool_AcquireRelease(t *testing.T) {
	p := newWorkerPool(2, 0)
	ctx := context.Background()

	if err := p.acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := p.acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if got := p.inUse(); got != 2 {
		t.Fatalf("inUse: %d", got)
	}
	p.release()
	if got := p.inUse(); got != 1 {
		t.Fatalf("inUse after release: %d", got)
	}
}

func TestWorkerPool_MaxWaitExhaustion(t *testing.T) {
	p := newWorkerPool(1, 10*time.Millisecond)
	ctx := context.Background()

	if err := p.acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	err := p.acquire(ctx)
	if !errors.IsCode(err, errors.ErrCodeWorkerPoolExhausted) {
		t.Fatalf("expected pool exhausted, got %v", err)
	}
}

func TestWorkerPool_BlocksUntilSlotFrees(t *testing.T) {
	p := newWorkerPool(1, 0)
	ctx := context.Background()

	if err := p.acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		p.release()
	}()
	if err := p.acquire(ctx); err != nil {
		t.Fatalf("blocked acquire: %v", err)
	}
}

func TestWorkerPool_CancelledWhileWaiting(t *testing.T) {
	p := newWorkerPool(1, 0)
	if err := p.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := p.acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
