// Package engine connects the poll jobs to the source clients and runs the
// servers next to the poller.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"focuswatch/app/client/activity"
	"focuswatch/app/client/agentapi"
	"focuswatch/app/client/eyetrack"
	"focuswatch/app/client/speech"
	"focuswatch/app/server"
	"focuswatch/app/service/chat"
	"focuswatch/app/service/dashboard"
	"focuswatch/app/service/events"
	"focuswatch/app/service/mcpserver"
	"focuswatch/app/service/poller"
	"focuswatch/app/service/tools"
	"focuswatch/app/service/voice"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type Sources struct {
	Attention interface {
		Fetch(ctx context.Context) (eyetrack.Snapshot, error)
	}
	Voice interface {
		FetchAnalysis(ctx context.Context) (speech.Analysis, error)
	}
	Activity interface {
		FetchStatus(ctx context.Context) (activity.Status, error)
	}
	Agent interface {
		LastResponse(ctx context.Context) (agentapi.LastResponse, error)
		ActiveTools(ctx context.Context) ([]string, error)
	}
}

type Service struct {
	sources      Sources
	pollerSvc    *poller.Service
	dashboardSvc *dashboard.Service
	chatSvc      *chat.Service
	voiceSvc     *voice.Service
	eventsSvc    *events.Service
	tracker      *tools.Tracker

	runners []runner
}

type runner struct {
	name string
	run  func(ctx context.Context) error
}

func New(di *do.Injector) (*Service, error) {
	s := NewService(
		Sources{
			Attention: do.MustInvoke[*eyetrack.Client](di),
			Voice:     do.MustInvoke[*speech.Client](di),
			Activity:  do.MustInvoke[*activity.Client](di),
			Agent:     do.MustInvoke[*agentapi.Client](di),
		},
		do.MustInvoke[*poller.Service](di),
		do.MustInvoke[*dashboard.Service](di),
		do.MustInvoke[*chat.Service](di),
		do.MustInvoke[*voice.Service](di),
		do.MustInvoke[*events.Service](di),
	)

	s.AddRunner("http", do.MustInvoke[*server.Service](di).Run)
	s.AddRunner("mcp", do.MustInvoke[*mcpserver.Service](di).Run)

	return s, nil
}

func NewService(
	sources Sources,
	pollerSvc *poller.Service,
	dashboardSvc *dashboard.Service,
	chatSvc *chat.Service,
	voiceSvc *voice.Service,
	eventsSvc *events.Service,
) *Service {
	s := &Service{
		sources:      sources,
		pollerSvc:    pollerSvc,
		dashboardSvc: dashboardSvc,
		chatSvc:      chatSvc,
		voiceSvc:     voiceSvc,
		eventsSvc:    eventsSvc,
	}

	s.tracker = tools.NewTracker(s.onToolChange)

	pollerSvc.Add("attention", s.pollAttention)
	pollerSvc.Add("voice", s.pollVoice)
	pollerSvc.Add("activity", s.pollActivity)
	pollerSvc.Add("last_response", s.pollLastResponse)
	pollerSvc.Add("active_tools", s.pollActiveTools)
	pollerSvc.Add("notify", s.notify)

	return s
}

// AddRunner registers a component that runs until the engine context ends.
func (s *Service) AddRunner(name string, run func(ctx context.Context) error) {
	s.runners = append(s.runners, runner{name: name, run: run})
}

// Run syncs the voice status once, then runs the poller and every runner
// until ctx is done or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	if err := s.voiceSvc.CheckStatus(ctx); err != nil {
		slog.Warn("Voice status unavailable", "error", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.pollerSvc.Run(groupCtx)
	})

	for _, r := range s.runners {
		group.Go(func() error {
			if err := r.run(groupCtx); err != nil {
				return fmt.Errorf("%s: %w", r.name, err)
			}
			return nil
		})
	}

	return group.Wait()
}

func (s *Service) pollAttention(ctx context.Context) {
	snap, err := s.sources.Attention.Fetch(ctx)
	if !s.pollerSvc.Running() {
		return
	}

	s.dashboardSvc.ApplyAttention(snap, err)
}

func (s *Service) pollVoice(ctx context.Context) {
	analysis, err := s.sources.Voice.FetchAnalysis(ctx)
	if !s.pollerSvc.Running() {
		return
	}

	s.dashboardSvc.ApplyVoice(analysis, err)
}

func (s *Service) pollActivity(ctx context.Context) {
	status, err := s.sources.Activity.FetchStatus(ctx)
	if !s.pollerSvc.Running() {
		return
	}

	s.dashboardSvc.ApplyActivity(status, err)
}

func (s *Service) pollLastResponse(ctx context.Context) {
	resp, err := s.sources.Agent.LastResponse(ctx)
	if !s.pollerSvc.Running() {
		return
	}

	s.dashboardSvc.ApplyAgent(err)
	if err != nil {
		return
	}

	if msg, ok := s.chatSvc.AppendAuto(resp); ok {
		s.eventsSvc.Publish(events.KindChat, msg)
	}
}

func (s *Service) pollActiveTools(ctx context.Context) {
	names, err := s.sources.Agent.ActiveTools(ctx)
	if !s.pollerSvc.Running() {
		return
	}

	s.dashboardSvc.ApplyTools(err)
	if err != nil {
		return
	}

	s.tracker.Observe(names)
}

func (s *Service) onToolChange(result *tools.Result) {
	s.dashboardSvc.SetActiveTool(result)
	s.eventsSvc.Publish(events.KindTool, result)

	if result == nil {
		slog.Info("No active tool")
		return
	}

	slog.Info("Active tool changed", "tool", result.Tool, "priority", result.Priority)
}

// notify pushes a state event once per tick so streams refresh at the poll
// rate.
func (s *Service) notify(_ context.Context) {
	if !s.pollerSvc.Running() {
		return
	}

	s.eventsSvc.Publish(events.KindState, nil)
}
