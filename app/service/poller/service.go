// Package poller drives independent periodic jobs against the polled sources.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"focuswatch/app/config"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do"
)

// Job is one fetch cycle. The context is not cancelled by Stop, so a request
// already on the wire completes; jobs check Running before applying results.
type Job func(ctx context.Context)

type Service struct {
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	names   []string
	jobs    []Job
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool

	inflight sync.WaitGroup
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(do.MustInvoke[clockwork.Clock](di), cfg.Poll.Interval), nil
}

func NewService(clk clockwork.Clock, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}

	return &Service{
		clock:    clk,
		interval: interval,
	}
}

// Add registers a job. Jobs added after Start run from the next tick on.
func (s *Service) Add(name string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = append(s.names, name)
	s.jobs = append(s.jobs, job)
}

func (s *Service) Interval() time.Duration {
	return s.interval
}

// Running is false once Stop was called; late responses are dropped on it.
func (s *Service) Running() bool {
	return s.running.Load()
}

// Start fires every job immediately and then once per interval.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running.Store(true)

	ticker := s.clock.NewTicker(s.interval)
	jobCtx := context.WithoutCancel(ctx)

	s.fireLocked(jobCtx)

	go s.loop(jobCtx, ticker, s.stop, s.done)

	slog.Info("Poller started", "interval", s.interval, "jobs", s.names)
}

// Stop cancels the ticker. In-flight jobs are left to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running.Load() {
		s.mu.Unlock()
		return
	}
	s.running.Store(false)
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	slog.Info("Poller stopped")
}

// Run starts the poller and stops it when ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()

	return nil
}

// Wait blocks until every fired job has returned.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) loop(ctx context.Context, ticker clockwork.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			s.mu.Lock()
			s.fireLocked(ctx)
			s.mu.Unlock()
		}
	}
}

func (s *Service) fireLocked(ctx context.Context) {
	for i, job := range s.jobs {
		name := s.names[i]

		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Poll job panicked", "job", name, "panic", r)
				}
			}()

			job(ctx)
		}()
	}
}
