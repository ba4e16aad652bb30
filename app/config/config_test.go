package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Poll.Interval != time.Second {
		t.Fatalf("expected 1s interval, got %s", cfg.Poll.Interval)
	}
	if cfg.Poll.HistorySize != 30 {
		t.Fatalf("expected history size 30, got %d", cfg.Poll.HistorySize)
	}
	if cfg.Calibration.Timeout != 10*time.Second {
		t.Fatalf("expected 10s calibration timeout, got %s", cfg.Calibration.Timeout)
	}
	if cfg.Chat.AskTimeout != time.Minute {
		t.Fatalf("expected 1m ask timeout, got %s", cfg.Chat.AskTimeout)
	}
	if cfg.Sources.Agent != "http://localhost:8005" {
		t.Fatalf("unexpected agent url %q", cfg.Sources.Agent)
	}
}

func TestLoadFileOverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
poll:
  interval: 250ms
sources:
  attention: http://10.0.0.2:8001
log:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", cfg.Poll.Interval)
	}
	if cfg.Sources.Attention != "http://10.0.0.2:8001" {
		t.Fatalf("unexpected attention url %q", cfg.Sources.Attention)
	}
	if cfg.Sources.Voice != "http://127.0.0.1:5002" {
		t.Fatalf("voice default lost: %q", cfg.Sources.Voice)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Log.Level)
	}
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
sources:
  agent: not a url
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadFileRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("poll: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadFileKeepsExplicitZeroCountdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
calibration:
  countdown: 0
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Calibration.Countdown != 0 {
		t.Fatalf("expected countdown 0, got %d", cfg.Calibration.Countdown)
	}
	if cfg.Calibration.Timeout != 10*time.Second {
		t.Fatalf("calibration timeout default lost: %s", cfg.Calibration.Timeout)
	}

	absent, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if absent.Calibration.Countdown != 5 {
		t.Fatalf("expected default countdown 5, got %d", absent.Calibration.Countdown)
	}
}
