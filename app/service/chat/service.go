// Package chat keeps the conversation with the agent: user questions and
// messages the agent pushes on its own.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"focuswatch/app/client/agentapi"
	"focuswatch/app/util/mylog"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do"
)

var ErrEmptyQuestion = errors.New("empty question")

type Agent interface {
	Ask(ctx context.Context, question string) (string, error)
	BaseURL() string
}

type Service struct {
	agent Agent
	clock clockwork.Clock

	inFlight atomic.Int32

	mu       sync.RWMutex
	messages []Message
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*agentapi.Client](di),
		do.MustInvoke[clockwork.Clock](di),
	), nil
}

func NewService(agent Agent, clk clockwork.Clock) *Service {
	return &Service{
		agent:    agent,
		clock:    clk,
		messages: []Message{},
	}
}

// Ask sends the question to the agent and appends the exchange to the log.
// A failed request still appends a message explaining the failure; the
// error is returned alongside it.
func (s *Service) Ask(ctx context.Context, question string) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, ErrEmptyQuestion
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	answer, err := s.agent.Ask(ctx, question)
	if err != nil {
		slog.Warn("Agent question failed", "error", err)
		answer = ExplainError(err, s.agent.BaseURL())
	} else if answer == "" {
		answer = noAnswer
	}

	msg := Message{
		ID:        newID(false),
		Question:  question,
		Answer:    answer,
		Timestamp: s.clock.Now(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	return msg, err
}

// AppendAuto adds the message the agent pushed via last_response, unless the
// latest chat message already carries the same text. Only the latest message
// is compared, so an answer repeated after another message shows up again.
func (s *Service) AppendAuto(resp agentapi.LastResponse) (Message, bool) {
	var msg Message
	switch {
	case resp.Alert != nil && resp.Alert.Message != "":
		msg = Message{Answer: resp.Alert.Message, AlertType: resp.Alert.Type}
	case resp.Answer != "":
		msg = Message{Answer: resp.Answer}
	default:
		return Message{}, false
	}

	s.mu.Lock()
	if n := len(s.messages); n > 0 && s.messages[n-1].Answer == msg.Answer {
		s.mu.Unlock()
		return Message{}, false
	}

	msg.ID = newID(true)
	msg.Timestamp = s.clock.Now()
	msg.IsAutoMessage = true
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if msg.AlertType != "" {
		slog.Info("Agent alert", "type", msg.AlertType, "message", msg.Answer, mylog.TelegramKey, true)
	} else {
		slog.Debug("Agent auto answer", "message", msg.Answer)
	}

	return msg, true
}

func (s *Service) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Message, len(s.messages))
	copy(result, s.messages)

	return result
}

func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = []Message{}
}

func (s *Service) Busy() bool {
	return s.inFlight.Load() > 0
}
