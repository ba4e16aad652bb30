// Package voice controls speech recognition on the voice service and runs
// microphone calibration.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focuswatch/app/client/speech"
	"focuswatch/app/config"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do"
)

const countdownStep = time.Second

var ErrCalibrationInProgress = errors.New("calibration already in progress")

type Client interface {
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	Calibrate(ctx context.Context) error
	CalibrationStatus(ctx context.Context) (speech.CalibrationReport, error)
	Status(ctx context.Context) (speech.Status, error)
}

type State struct {
	Recording   bool                     `json:"recording"`
	Threshold   *float64                 `json:"threshold"`
	Calibration speech.CalibrationStatus `json:"calibration"`
	Countdown   int                      `json:"countdown"`
	Calibrating bool                     `json:"calibrating"`
}

type Service struct {
	client Client
	clock  clockwork.Clock
	cfg    config.Calibration

	mu    sync.RWMutex
	state State
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[*speech.Client](di),
		do.MustInvoke[clockwork.Clock](di),
		cfg.Calibration,
	), nil
}

func NewService(client Client, clk clockwork.Clock, cfg config.Calibration) *Service {
	return &Service{
		client: client,
		clock:  clk,
		cfg:    cfg,
		state:  State{Calibration: speech.CalibrationIdle},
	}
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.state
	if s.state.Threshold != nil {
		threshold := *s.state.Threshold
		result.Threshold = &threshold
	}

	return result
}

// Toggle stops recognition when it is running and starts it otherwise. The
// local flag changes only when the service accepted the command.
func (s *Service) Toggle(ctx context.Context) (bool, error) {
	s.mu.RLock()
	recording := s.state.Recording
	s.mu.RUnlock()

	var (
		message string
		err     error
	)
	if recording {
		message, err = s.client.Stop(ctx)
	} else {
		message, err = s.client.Start(ctx)
	}
	if err != nil {
		return recording, fmt.Errorf("toggle voice recognition: %w", err)
	}

	s.mu.Lock()
	s.state.Recording = !recording
	s.mu.Unlock()

	slog.Info("Voice recognition toggled", "recording", !recording, "message", message)

	return !recording, nil
}

// CheckStatus syncs the recording flag and the energy threshold with the
// service. A zero threshold means the service has none yet.
func (s *Service) CheckStatus(ctx context.Context) error {
	status, err := s.client.Status(ctx)
	if err != nil {
		return fmt.Errorf("check voice status: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Recording = status.IsActive
	if status.EnergyThreshold != 0 {
		threshold := status.EnergyThreshold
		s.state.Threshold = &threshold
	}

	return nil
}

// StartCalibration begins a calibration in the background. The returned
// channel receives the final status and is closed afterwards.
func (s *Service) StartCalibration(ctx context.Context) (<-chan speech.CalibrationStatus, error) {
	s.mu.Lock()
	if s.state.Calibrating {
		s.mu.Unlock()
		return nil, ErrCalibrationInProgress
	}
	s.state.Calibrating = true
	s.state.Calibration = speech.CalibrationCountdown
	s.state.Countdown = s.cfg.Countdown
	s.mu.Unlock()

	done := make(chan speech.CalibrationStatus, 1)

	go func() {
		defer close(done)

		status := s.calibrate(ctx)
		s.finish(status)

		slog.Info("Calibration finished", "status", status)
		done <- status
	}()

	return done, nil
}

func (s *Service) calibrate(ctx context.Context) speech.CalibrationStatus {
	for i := s.cfg.Countdown; i > 0; i-- {
		s.setCountdown(i)

		select {
		case <-ctx.Done():
			return speech.CalibrationError
		case <-s.clock.After(countdownStep):
		}
	}

	s.mu.Lock()
	s.state.Countdown = 0
	s.state.Calibration = speech.CalibrationRunning
	s.mu.Unlock()

	if err := s.client.Calibrate(ctx); err != nil {
		slog.Warn("Failed to start calibration", "error", err)
		return speech.CalibrationError
	}

	timeout := s.clock.After(s.cfg.Timeout)
	ticker := s.clock.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return speech.CalibrationError
		case <-timeout:
			slog.Warn("Calibration timed out", "timeout", s.cfg.Timeout)
			return speech.CalibrationError
		case <-ticker.Chan():
		}

		report, err := s.client.CalibrationStatus(ctx)
		if err != nil {
			slog.Debug("Calibration status check failed", "error", err)
			continue
		}

		s.mu.Lock()
		s.state.Calibration = report.Status
		if report.Status == speech.CalibrationCompleted && report.NewThreshold != nil {
			threshold := *report.NewThreshold
			s.state.Threshold = &threshold
		}
		s.mu.Unlock()

		if report.Status.Terminal() {
			return report.Status
		}
	}
}

func (s *Service) setCountdown(value int) {
	s.mu.Lock()
	s.state.Countdown = value
	s.mu.Unlock()
}

func (s *Service) finish(status speech.CalibrationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Calibrating = false
	s.state.Calibration = status
	s.state.Countdown = 0
}
