package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// resetQueue clears the global queue between tests.
func resetQueue(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		mu.Lock()

		tasks = nil
		closed = false

		mu.Unlock()
	})
}

//nolint:paralleltest
func TestLIFOOrder(t *testing.T) {
	resetQueue(t)

	var order []int

	for i := 1; i <= 3; i++ {
		n := i

		Add(func(context.Context) error {
			order = append(order, n)

			return nil
		})
	}

	err := Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	want := []int{3, 2, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", order, want)
		}
	}
}

//nolint:paralleltest
func TestNilTaskIgnored(t *testing.T) {
	resetQueue(t)

	Add(nil)

	err := Shutdown(context.Background())
	if err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

//nolint:paralleltest
func TestPanicRecoveredAndDrainContinues(t *testing.T) {
	resetQueue(t)

	var ranAfterPanic atomic.Bool

	Add(func(context.Context) error {
		ranAfterPanic.Store(true)

		return nil
	})
	Add(func(context.Context) error { panic("boom") })

	err := Shutdown(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error with panic; got nil")
	}

	if !strings.Contains(err.Error(), "panic in shutdown task: boom") {
		t.Fatalf("expected panic message in error; got: %q", err.Error())
	}

	if !ranAfterPanic.Load() {
		t.Fatal("expected tasks after the panic to still run")
	}
}

//nolint:paralleltest
func TestErrorsJoined(t *testing.T) {
	resetQueue(t)

	err1 := errors.New("alpha")
	err2 := errors.New("beta")

	Add(func(context.Context) error { return err1 })
	Add(func(context.Context) error { return err2 })

	err := Shutdown(context.Background())
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Fatalf("expected joined error with both; got: %v", err)
	}
}

//nolint:paralleltest
func TestIdempotentAndAddAfterShutdownIgnored(t *testing.T) {
	resetQueue(t)

	var count atomic.Int32

	Add(func(context.Context) error {
		count.Add(1)

		return nil
	})

	err := Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown #1 error: %v", err)
	}

	// Registered after the drain: must never run.
	Add(func(context.Context) error {
		count.Add(100)

		return nil
	})

	err = Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown #2 error: %v", err)
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("expected tasks to run exactly once; counter=%d", got)
	}
}

//nolint:paralleltest
func TestCancelStopsDrain(t *testing.T) {
	resetQueue(t)

	var ranLast atomic.Bool

	Add(func(context.Context) error {
		ranLast.Store(true)

		return nil
	})

	gateReady := make(chan struct{})
	Add(func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- Shutdown(ctx) }()

	<-gateReady
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled; got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after cancel")
	}

	if ranLast.Load() {
		t.Fatal("expected remaining task to be skipped after cancel")
	}
}
