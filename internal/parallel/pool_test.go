package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapKeepsOrder(t *testing.T) {
	wp := NewWorkerPool(3)
	defer wp.Shutdown()

	got, err := Map(context.Background(), wp, 20, func(_ context.Context, i int) int {
		time.Sleep(time.Duration(20-i) * 100 * time.Microsecond)
		return i * i
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	for i, v := range got {
		if v != i*i {
			t.Errorf("result %d = %d, want %d", i, v, i*i)
		}
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	wp := NewWorkerPool(2)
	defer wp.Shutdown()

	var running, peak int64
	_, err := Map(context.Background(), wp, 10, func(_ context.Context, _ int) struct{} {
		n := atomic.AddInt64(&running, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return struct{}{}
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", peak)
	}
}

func TestMapCancelled(t *testing.T) {
	wp := NewWorkerPool(1)
	defer wp.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int64
	_, err := Map(ctx, wp, 5, func(context.Context, int) int {
		atomic.AddInt64(&calls, 1)
		return 0
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Map() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fn called %d times after cancellation", calls)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	wp := NewWorkerPool(0)
	if wp.Workers() < 1 {
		t.Fatalf("Workers() = %d, want at least 1", wp.Workers())
	}
	wp.Shutdown()
	wp.Shutdown()
	if err := wp.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolShutdown) {
		t.Errorf("Submit() error = %v, want ErrPoolShutdown", err)
	}
}

func TestMapReturnsWhenPoolShutsDown(t *testing.T) {
	wp := NewWorkerPool(1)
	started := make(chan struct{})
	release := make(chan struct{})

	type result struct {
		out []int
		err error
	}
	results := make(chan result, 1)
	go func() {
		out, err := Map(context.Background(), wp, 3, func(_ context.Context, i int) int {
			if i == 0 {
				close(started)
				<-release
			}
			return i + 1
		})
		results <- result{out, err}
	}()

	<-started
	go wp.Shutdown()
	<-wp.shutdownChan
	close(release)

	select {
	case r := <-results:
		if !errors.Is(r.err, ErrPoolShutdown) {
			t.Errorf("Map() error = %v, want ErrPoolShutdown", r.err)
		}
		if r.out[0] != 1 {
			t.Errorf("result 0 = %d, want 1", r.out[0])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Map did not return after the pool shut down")
	}
}
