// Package targets manages which windows the activity service tracks.
// Selection changes stay local until Save.
package targets

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"focuswatch/app/client/activity"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

type Client interface {
	Windows(ctx context.Context) (activity.WindowList, error)
	SelectTargets(ctx context.Context, targets []string) (activity.Selection, error)
	ClearTargets(ctx context.Context) error
}

type State struct {
	Windows  []activity.Window `json:"windows"`
	Selected []string          `json:"selected"`
	Loading  bool              `json:"loading"`
}

type Service struct {
	client Client

	mu       sync.RWMutex
	windows  []activity.Window
	selected []string
	loading  bool
}

func New(di *do.Injector) (*Service, error) {
	return NewService(do.MustInvoke[*activity.Client](di)), nil
}

func NewService(client Client) *Service {
	return &Service{
		client:   client,
		windows:  []activity.Window{},
		selected: []string{},
	}
}

// Refresh reloads the window list and adopts the service's own selection.
func (s *Service) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	list, err := s.client.Windows(ctx)
	if err != nil {
		s.mu.Lock()
		s.windows = []activity.Window{}
		s.mu.Unlock()

		return fmt.Errorf("refresh windows: %w", err)
	}

	selected := pie.Map(
		pie.Filter(list.Windows, func(w activity.Window) bool { return w.IsSelected }),
		func(w activity.Window) string { return w.Title },
	)

	s.mu.Lock()
	s.windows = list.Windows
	s.selected = selected
	s.mu.Unlock()

	return nil
}

// Toggle flips the local selection of a window title and reports whether it
// is now selected.
func (s *Service) Toggle(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := slices.Index(s.selected, title); idx >= 0 {
		s.selected = slices.Delete(slices.Clone(s.selected), idx, idx+1)
		return false
	}

	s.selected = append(slices.Clone(s.selected), title)
	return true
}

// Save sends the local selection and replaces it with what the service
// confirmed.
func (s *Service) Save(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	targets := slices.Clone(s.selected)
	s.mu.RUnlock()

	selection, err := s.client.SelectTargets(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("save targets: %w", err)
	}

	slog.Info("Targets selected", "count", selection.Count)

	s.mu.Lock()
	s.selected = slices.Clone(selection.SelectedTargets)
	s.mu.Unlock()

	return selection.SelectedTargets, nil
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.client.ClearTargets(ctx); err != nil {
		return fmt.Errorf("clear targets: %w", err)
	}

	slog.Info("Targets cleared")

	s.mu.Lock()
	s.selected = []string{}
	s.mu.Unlock()

	return nil
}

// State marks windows by the local selection, not by the last server view.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows := make([]activity.Window, len(s.windows))
	for i, w := range s.windows {
		w.IsSelected = slices.Contains(s.selected, w.Title)
		windows[i] = w
	}

	return State{
		Windows:  windows,
		Selected: slices.Clone(s.selected),
		Loading:  s.loading,
	}
}

func (s *Service) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}
