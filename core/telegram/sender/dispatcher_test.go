package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDispatcherPreservesPerUserOrder(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 4, QueueSize: 128})

	var (
		mu   sync.Mutex
		seen = make(map[int64][]int)
	)
	for i := 0; i < 50; i++ {
		for _, userID := range []int64{1, 2, 3} {
			uid, n := userID, i
			err := d.Enqueue(context.Background(), uid, "send", "text", func() error {
				mu.Lock()
				seen[uid] = append(seen[uid], n)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("enqueue user %d job %d: %v", uid, n, err)
			}
		}
	}
	d.Close()

	for uid, order := range seen {
		if len(order) != 50 {
			t.Fatalf("user %d executed %d jobs", uid, len(order))
		}
		for i, n := range order {
			if n != i {
				t.Fatalf("user %d job %d executed at position %d", uid, n, i)
			}
		}
	}
}

func TestDispatcherRetriesRetryableErrors(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, QueueSize: 8, MaxRetries: 2, RetryBackoff: time.Millisecond})

	calls := 0
	err := d.Enqueue(context.Background(), 1, "send", "text", func() error {
		calls++
		if calls < 3 {
			return &timeoutError{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()

	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
}

func TestDispatcherCountsExhaustedJobs(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, QueueSize: 8, MaxRetries: 1, RetryBackoff: time.Millisecond})

	if err := d.Enqueue(context.Background(), 1, "send", "text", func() error {
		return &timeoutError{}
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()

	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, QueueSize: 1})
	d.Close()

	err := d.Enqueue(context.Background(), 1, "send", "text", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestSanitizeErrorMessageRedactsToken(t *testing.T) {
	err := fmt.Errorf("Post \"https://api.telegram.org/bot123456:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendMessage\": timeout")
	got := sanitizeErrorMessage(err)
	if want := "bot<redacted>"; !strings.Contains(got, want) {
		t.Fatalf("sanitized = %q, missing %q", got, want)
	}
	if strings.Contains(got, "123456:") {
		t.Fatalf("token leaked: %q", got)
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

func TestEnqueueWaitKeepsOrderWhenLaneFull(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, QueueSize: 1})

	var (
		mu    sync.Mutex
		order []int
	)
	record := func(n int) func() error {
		return func() error {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		}
	}

	started := make(chan struct{})
	gate := make(chan struct{})
	if err := d.Enqueue(context.Background(), 1, "send", "text", func() error {
		close(started)
		<-gate
		return record(1)()
	}); err != nil {
		t.Fatalf("enqueue 1: %v", err)
	}
	<-started

	if err := d.Enqueue(context.Background(), 1, "send", "text", record(2)); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}
	if err := d.Enqueue(context.Background(), 1, "send", "text", record(3)); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}

	waited := make(chan error, 1)
	go func() {
		waited <- d.EnqueueWait(context.Background(), 1, "send", "text", record(3))
	}()
	select {
	case err := <-waited:
		t.Fatalf("EnqueueWait returned before a slot opened: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	if err := <-waited; err != nil {
		t.Fatalf("EnqueueWait: %v", err)
	}
	d.Close()

	if len(order) != 3 {
		t.Fatalf("executed %d jobs, want 3", len(order))
	}
	for i, n := range order {
		if n != i+1 {
			t.Fatalf("order = %v, want [1 2 3]", order)
		}
	}
}

func TestEnqueueWaitHonorsContext(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, QueueSize: 1})

	started := make(chan struct{})
	gate := make(chan struct{})
	if err := d.Enqueue(context.Background(), 1, "send", "text", func() error {
		close(started)
		<-gate
		return nil
	}); err != nil {
		t.Fatalf("enqueue 1: %v", err)
	}
	<-started
	if err := d.Enqueue(context.Background(), 1, "send", "text", func() error { return nil }); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.EnqueueWait(ctx, 1, "send", "text", func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	close(gate)
	d.Close()

	if err := d.EnqueueWait(context.Background(), 1, "send", "text", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err after close = %v, want ErrQueueClosed", err)
	}
}

func TestCloseDuringEnqueueDoesNotPanic(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 2, QueueSize: 4})

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			for {
				err := d.Enqueue(context.Background(), uid, "send", "text", func() error { return nil })
				if errors.Is(err, ErrQueueClosed) {
					return
				}
			}
		}(int64(g))
	}

	time.Sleep(10 * time.Millisecond)
	d.Close()
	wg.Wait()
}
