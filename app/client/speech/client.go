// Package speech talks to the voice analysis and voice control service.
package speech

import (
	"context"
	"fmt"
	"net/http"

	"focuswatch/app/client/httpapi"
	"focuswatch/app/config"

	"github.com/samber/do"
)

const (
	textsPath             = "/get_texts"
	startPath             = "/api/voice_control/start"
	stopPath              = "/api/voice_control/stop"
	calibratePath         = "/api/voice_control/calibrate"
	calibrationStatusPath = "/api/voice_control/calibrate/status"
	statusPath            = "/api/voice_control/status"
)

type CalibrationStatus string

const (
	CalibrationIdle      CalibrationStatus = "idle"
	CalibrationCountdown CalibrationStatus = "countdown"
	CalibrationRunning   CalibrationStatus = "running"
	CalibrationCompleted CalibrationStatus = "completed"
	CalibrationError     CalibrationStatus = "error"
)

func (s CalibrationStatus) Terminal() bool {
	return s == CalibrationCompleted || s == CalibrationError
}

type Analysis struct {
	FocusScore     float64 `json:"focus_score"`
	SoundIntensity float64 `json:"sound_intensity"`
}

type CalibrationReport struct {
	Status       CalibrationStatus
	NewThreshold *float64
}

type Status struct {
	IsActive        bool
	EnergyThreshold float64
}

type Client struct {
	api *httpapi.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(httpapi.New(cfg.Sources.Voice, cfg.Poll.RequestTimeout)), nil
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

func (c *Client) FetchAnalysis(ctx context.Context) (Analysis, error) {
	doc, err := c.api.Get(ctx, textsPath)
	if err != nil {
		return Analysis{}, fmt.Errorf("fetch voice analysis: %w", err)
	}

	result := Analysis{FocusScore: doc.Float("focus_score")}

	// an explicit sound_intensity wins even when it is zero
	if doc.Has("sound_intensity") {
		result.SoundIntensity = doc.Float("sound_intensity")
	} else {
		result.SoundIntensity = result.FocusScore
	}

	return result, nil
}

// Start begins voice recognition and returns the service message.
func (c *Client) Start(ctx context.Context) (string, error) {
	doc, err := c.api.Post(ctx, startPath, nil)
	if err != nil {
		return "", fmt.Errorf("start voice control: %w", err)
	}

	return doc.String("message"), nil
}

// Stop ends voice recognition and returns the service message.
func (c *Client) Stop(ctx context.Context) (string, error) {
	doc, err := c.api.Post(ctx, stopPath, nil)
	if err != nil {
		return "", fmt.Errorf("stop voice control: %w", err)
	}

	return doc.String("message"), nil
}

func (c *Client) Calibrate(ctx context.Context) error {
	if _, err := c.api.Do(ctx, http.MethodPost, calibratePath, nil); err != nil {
		return fmt.Errorf("start calibration: %w", err)
	}

	return nil
}

func (c *Client) CalibrationStatus(ctx context.Context) (CalibrationReport, error) {
	doc, err := c.api.Get(ctx, calibrationStatusPath)
	if err != nil {
		return CalibrationReport{}, fmt.Errorf("fetch calibration status: %w", err)
	}

	report := CalibrationReport{Status: CalibrationStatus(doc.String("calibration_status"))}
	if result, ok := doc.Object("calibration_result"); ok {
		report.NewThreshold = result.OptFloat("new_threshold")
	}

	return report, nil
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	doc, err := c.api.Get(ctx, statusPath)
	if err != nil {
		return Status{}, fmt.Errorf("fetch voice status: %w", err)
	}

	return Status{
		IsActive:        doc.Bool("is_active"),
		EnergyThreshold: doc.Float("energy_threshold"),
	}, nil
}
