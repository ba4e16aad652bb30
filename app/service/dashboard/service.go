// Package dashboard is the state container fed by the poll jobs.
//
// Every slice has exactly one writer: the poll handler of its source.
// Failed polls only flip liveness; the last good payload stays visible.
package dashboard

import (
	"log/slog"
	"sync"

	"focuswatch/app/client/activity"
	"focuswatch/app/client/eyetrack"
	"focuswatch/app/client/speech"
	"focuswatch/app/config"
	"focuswatch/app/service/tools"
	"focuswatch/app/util/history"

	"github.com/samber/do"
)

type Snapshot struct {
	Liveness         map[Source]bool    `json:"liveness"`
	Attention        *eyetrack.Snapshot `json:"attention"`
	AttentionHistory []float64          `json:"attention_history"`
	FocusScore       float64            `json:"focus_score"`
	SoundHistory     []float64          `json:"sound_history"`
	Activity         *activity.Status   `json:"activity"`
	TimeSpent        []TimeSpentRow     `json:"time_spent"`
	ActiveTool       *tools.Result      `json:"active_tool"`
}

type Service struct {
	historySize int
	liveness    *Liveness

	mu               sync.RWMutex
	attention        *eyetrack.Snapshot
	attentionHistory []float64
	focusScore       float64
	soundHistory     []float64
	activity         *activity.Status
	activeTool       *tools.Result
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Poll.HistorySize), nil
}

func NewService(historySize int) *Service {
	if historySize <= 0 {
		historySize = history.DefaultCapacity
	}

	return &Service{
		historySize:      historySize,
		liveness:         NewLiveness(),
		attentionHistory: []float64{},
		soundHistory:     []float64{},
	}
}

func (s *Service) Liveness() *Liveness {
	return s.liveness
}

func (s *Service) ApplyAttention(snap eyetrack.Snapshot, err error) {
	if !s.observe(SourceAttention, err) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attention = &snap
	s.attentionHistory = history.Push(s.attentionHistory, snap.Attention, s.historySize)
}

func (s *Service) ApplyVoice(analysis speech.Analysis, err error) {
	if !s.observe(SourceVoice, err) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.focusScore = analysis.FocusScore
	s.soundHistory = history.Push(s.soundHistory, analysis.SoundIntensity, s.historySize)
}

func (s *Service) ApplyActivity(status activity.Status, err error) {
	if !s.observe(SourceActivity, err) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity = &status
}

// ApplyAgent records reachability of the agent's last_response endpoint.
func (s *Service) ApplyAgent(err error) {
	s.observe(SourceAgent, err)
}

func (s *Service) ApplyTools(err error) {
	s.observe(SourceTools, err)
}

func (s *Service) SetActiveTool(result *tools.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeTool = result
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Liveness:         s.liveness.All(),
		AttentionHistory: cloneHistory(s.attentionHistory),
		FocusScore:       s.focusScore,
		SoundHistory:     cloneHistory(s.soundHistory),
		TimeSpent:        []TimeSpentRow{},
	}
	if s.attention != nil {
		attention := *s.attention
		snap.Attention = &attention
	}
	if s.activity != nil {
		status := *s.activity
		snap.Activity = &status
		snap.TimeSpent = TimeSpentRows(status)
	}
	if s.activeTool != nil {
		tool := *s.activeTool
		snap.ActiveTool = &tool
	}

	return snap
}

func (s *Service) observe(source Source, err error) bool {
	active := s.liveness.Observe(source, err)
	if !active {
		slog.Debug("Source poll failed", "source", source, "error", err)
	}

	return active
}

// cloneHistory never returns nil so empty histories encode as [].
func cloneHistory(values []float64) []float64 {
	result := make([]float64, len(values))
	copy(result, values)

	return result
}
