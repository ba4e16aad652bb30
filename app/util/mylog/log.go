package mylog

import (
	"context"
	"focuswatch/app/config"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// TelegramKey marks a record that must reach the Telegram sink regardless of its level.
const TelegramKey = "telegram"

func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

func Init(cfg *config.Config) error {
	level, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	router := slogmulti.Router().Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: level == slog.LevelDebug,
		Level:     level,
	}))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: false,
			}.NewTelegramHandler(),
			forTelegram,
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

func ParseLevel(value string) (slog.Level, error) {
	if value == "" {
		value = config.DefaultLevel
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, err
	}

	return level, nil
}

func forTelegram(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	tagged := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == TelegramKey {
			tagged = attr.Value.Kind() == slog.KindBool && attr.Value.Bool()
			return false
		}

		return true
	})

	return tagged
}
