package mylog

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", input, want, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestForTelegramRouting(t *testing.T) {
	plain := slog.NewRecord(time.Now(), slog.LevelInfo, "tick", 0)
	if forTelegram(context.Background(), plain) {
		t.Fatalf("plain info record must stay local")
	}

	tagged := slog.NewRecord(time.Now(), slog.LevelInfo, "alert", 0)
	tagged.AddAttrs(slog.Bool(TelegramKey, true))
	if !forTelegram(context.Background(), tagged) {
		t.Fatalf("tagged record must be forwarded")
	}

	failed := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	if !forTelegram(context.Background(), failed) {
		t.Fatalf("error record must be forwarded")
	}
}
