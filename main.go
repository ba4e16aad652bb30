package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"focuswatch/app/client/activity"
	"focuswatch/app/client/agentapi"
	"focuswatch/app/client/eyetrack"
	"focuswatch/app/client/speech"
	"focuswatch/app/config"
	"focuswatch/app/server"
	"focuswatch/app/service/chat"
	"focuswatch/app/service/dashboard"
	"focuswatch/app/service/engine"
	"focuswatch/app/service/events"
	"focuswatch/app/service/mcpserver"
	"focuswatch/app/service/poller"
	"focuswatch/app/service/targets"
	"focuswatch/app/service/voice"
	"focuswatch/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jonboulle/clockwork"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.ProvideValue[clockwork.Clock](di, clockwork.NewRealClock())

	do.Provide(di, eyetrack.NewClient)
	do.Provide(di, speech.NewClient)
	do.Provide(di, activity.NewClient)
	do.Provide(di, agentapi.NewClient)
	do.Provide(di, poller.New)
	do.Provide(di, dashboard.New)
	do.Provide(di, events.New)
	do.Provide(di, chat.New)
	do.Provide(di, targets.New)
	do.Provide(di, voice.New)
	do.Provide(di, server.New)
	do.Provide(di, mcpserver.New)
	do.Provide(di, engine.New)

	slog.Info("Service started",
		"http", cfg.HTTP.Addr,
		"interval", cfg.Poll.Interval)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	if err = do.MustInvoke[*engine.Service](di).Run(appCtx); err != nil {
		slog.Error("Engine stopped", "error", err)
	}
}
