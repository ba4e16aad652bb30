package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func blockUntil(t *testing.T, fc *clockwork.FakeClock, n int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := fc.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("expected %d pending timers: %v", n, err)
	}
}

func TestStartFiresImmediatelyThenPerTick(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	svc := NewService(fc, time.Second)

	var calls atomic.Int32
	svc.Add("count", func(ctx context.Context) {
		calls.Add(1)
	})

	svc.Start(context.Background())
	defer svc.Stop()

	waitFor(t, func() bool { return calls.Load() == 1 })

	for i := 2; i <= 4; i++ {
		fc.Advance(time.Second)
		want := int32(i)
		waitFor(t, func() bool { return calls.Load() == want })
	}
}

func TestJobsAreIsolated(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	svc := NewService(fc, time.Second)

	blocked := make(chan struct{})
	var fast atomic.Int32
	svc.Add("slow", func(ctx context.Context) {
		<-blocked
	})
	svc.Add("panics", func(ctx context.Context) {
		panic("boom")
	})
	svc.Add("fast", func(ctx context.Context) {
		fast.Add(1)
	})

	svc.Start(context.Background())
	waitFor(t, func() bool { return fast.Load() == 1 })
	fc.Advance(time.Second)
	waitFor(t, func() bool { return fast.Load() == 2 })
	fc.Advance(time.Second)
	waitFor(t, func() bool { return fast.Load() == 3 })

	svc.Stop()
	close(blocked)
	svc.Wait()
}

func TestStopCancelsTimersButNotInflight(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	svc := NewService(fc, time.Second)

	release := make(chan struct{})
	var calls atomic.Int32
	var ctxErr atomic.Value
	var sawRunning atomic.Bool
	svc.Add("inflight", func(ctx context.Context) {
		calls.Add(1)
		<-release
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		sawRunning.Store(svc.Running())
	})

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	waitFor(t, func() bool { return calls.Load() == 1 })

	cancel()
	svc.Stop()
	if svc.Running() {
		t.Fatalf("expected poller to be stopped")
	}
	blockUntil(t, fc, 0)

	fc.Advance(5 * time.Second)
	close(release)
	svc.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected no ticks after stop, got %d calls", calls.Load())
	}
	if ctxErr.Load() != nil {
		t.Fatalf("in-flight job context must not be cancelled, got %v", ctxErr.Load())
	}
	if sawRunning.Load() {
		t.Fatalf("late job must observe the stopped flag")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	svc := NewService(fc, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	waitFor(t, svc.Running)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return")
	}
	if svc.Running() {
		t.Fatalf("expected stopped poller")
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Unix(0, 0))
	svc := NewService(fc, time.Second)

	var calls atomic.Int32
	svc.Add("count", func(ctx context.Context) { calls.Add(1) })

	svc.Start(context.Background())
	svc.Start(context.Background())
	defer svc.Stop()

	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("expected single immediate fire, got %d", calls.Load())
	}
	blockUntil(t, fc, 1)
}
