package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/media"
)

func testKey(t *testing.T, capName, input string) Key {
	t.Helper()
	key, err := KeyFor(capName, nil, media.Bytes([]byte(input), media.KindImage))
	if err != nil {
		t.Fatalf("deriving key: %v", err)
	}
	return key
}

func TestGetOrCompute_ComputesOnce(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "detect", "frame-1")

	var calls atomic.Int32
	out, err := c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
		calls.Add(1)
		return media.Bytes([]byte("result"), media.KindRecord), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out.Data()) != "result" {
		t.Fatalf("unexpected output: %q", out.Data())
	}

	// Second call must hit without recomputing.
	_, err = c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
		calls.Add(1)
		return media.Payload{}, fmt.Errorf("should not run")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 compute call, got %d", calls.Load())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGetOrCompute_AtMostOnceUnderConcurrency(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "detect", "frame-2")

	const n = 32
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	outputs := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
				calls.Add(1)
				<-release
				return media.Bytes([]byte("shared"), media.KindRecord), nil
			})
			outputs[i], errs[i] = string(out.Data()), err
		}(i)
	}

	// Let all callers pile up on the same key before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 compute call, got %d", calls.Load())
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if outputs[i] != "shared" {
			t.Fatalf("caller %d got %q", i, outputs[i])
		}
	}
}

func TestGetOrCompute_FailureNotCached(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "detect", "frame-3")

	var calls atomic.Int32
	_, err := c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
		calls.Add(1)
		return media.Payload{}, fmt.Errorf("model server down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsCode(err, errors.ErrCodeComputeFailed) {
		t.Fatalf("unexpected code: %s", errors.CodeOf(err))
	}
	if c.Len() != 0 {
		t.Fatal("failure must not be cached")
	}

	// Retry recomputes.
	_, err = c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
		calls.Add(1)
		return media.Bytes([]byte("ok"), media.KindRecord), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected retry to recompute, calls=%d", calls.Load())
	}
}

func TestGetOrCompute_ConcurrentWaitersShareFailure(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "detect", "frame-4")

	const n = 8
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
				calls.Add(1)
				<-release
				return media.Payload{}, fmt.Errorf("boom")
			})
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 compute call, got %d", calls.Load())
	}
	for i := 0; i < n; i++ {
		if errs[i] == nil {
			t.Fatalf("waiter %d expected the shared failure", i)
		}
	}
}

func TestGetOrCompute_ContextCancelledWaiter(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "detect", "frame-5")

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
			close(started)
			<-release
			return media.Bytes([]byte("late"), media.KindRecord), nil
		})
	}()

	<-started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetOrCompute(ctx, key, func() (media.Payload, error) {
		return media.Payload{}, fmt.Errorf("should not run")
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestGetOrCompute_ComputingCallerSurvivesCancellation(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "decode", "frame-6")

	ctx, cancel := context.WithCancel(context.Background())
	out, err := c.GetOrCompute(ctx, key, func() (media.Payload, error) {
		// Cancellation lands while this call's own computation is in
		// flight; the natural result must still be reported.
		cancel()
		time.Sleep(10 * time.Millisecond)
		return media.Bytes([]byte("decoded"), media.KindFrames), nil
	})
	if err != nil {
		t.Fatalf("computing caller detached from its own flight: %v", err)
	}
	if string(out.Data()) != "decoded" {
		t.Fatalf("unexpected output %q", out.Data())
	}
	if _, ok := c.Get(key); !ok {
		t.Fatal("completed computation not cached")
	}
}

func TestEviction_LRUBySizeBudget(t *testing.T) {
	c := New(100)

	insert := func(name string, size int) Key {
		key := testKey(t, "decode", name)
		_, err := c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
			return media.Bytes(make([]byte, size), media.KindFrames), nil
		})
		if err != nil {
			t.Fatalf("inserting %s: %v", name, err)
		}
		return key
	}

	a := insert("a", 40)
	b := insert("b", 40)

	// Touch a so b becomes the LRU victim.
	if _, ok := c.Get(a); !ok {
		t.Fatal("expected a to be cached")
	}

	insert("c", 40)

	if _, ok := c.Get(b); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get(a); !ok {
		t.Fatal("expected a to survive")
	}
	if c.Stats().Evictions != 1 {
		t.Fatalf("unexpected evictions: %d", c.Stats().Evictions)
	}
	if c.Bytes() > 100 {
		t.Fatalf("budget exceeded: %d", c.Bytes())
	}
}

func TestKey_Determinism(t *testing.T) {
	in := media.Bytes([]byte("frame"), media.KindImage)

	k1, err := KeyFor("detect", map[string]string{"a": "1", "b": "2"}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := KeyFor("detect", map[string]string{"b": "2", "a": "1"}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k1.Fingerprint() != k2.Fingerprint() {
		t.Fatal("option order must not change the fingerprint")
	}

	k3, _ := KeyFor("detect", map[string]string{"a": "1", "b": "3"}, in)
	if k3.Fingerprint() == k1.Fingerprint() {
		t.Fatal("different options must change the fingerprint")
	}

	k4, _ := KeyFor("embed", map[string]string{"a": "1", "b": "2"}, in)
	if k4.Fingerprint() == k1.Fingerprint() {
		t.Fatal("different capability must change the fingerprint")
	}
}

func TestPurge(t *testing.T) {
	c := New(1 << 20)
	key := testKey(t, "decode", "x")
	_, _ = c.GetOrCompute(context.Background(), key, func() (media.Payload, error) {
		return media.Bytes([]byte("y"), media.KindFrames), nil
	})
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	c.Purge()
	if c.Len() != 0 || c.Bytes() != 0 {
		t.Fatal("purge should empty the cache")
	}
}
