package events

import (
	"log/slog"
	"sync"

	"github.com/samber/do"
)

const bufferSize = 16

var _ do.Shutdownable = (*Service)(nil)

type Kind string

const (
	KindState Kind = "state"
	KindChat  Kind = "chat"
	KindTool  Kind = "tool"
)

type Event struct {
	Kind Kind
	Data any
}

// Service fans events out to subscribers. A slow subscriber loses events
// instead of blocking the publisher.
type Service struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func New(_ *do.Injector) (*Service, error) {
	return NewService(), nil
}

func NewService() *Service {
	return &Service{subs: make(map[chan Event]struct{})}
}

// Subscribe returns the event channel and a function that releases it. The
// channel is closed on release or shutdown.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, bufferSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Service) Publish(kind Kind, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- Event{Kind: kind, Data: data}:
		default:
			slog.Warn("Event subscriber is full", "kind", kind)
		}
	}
}

func (s *Service) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		close(ch)
	}
	s.subs = map[chan Event]struct{}{}
	s.closed = true

	return nil
}
