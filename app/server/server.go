// Package server exposes the dashboard state and controls over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"focuswatch/app/config"
	"focuswatch/app/service/chat"
	"focuswatch/app/service/dashboard"
	"focuswatch/app/service/events"
	"focuswatch/app/service/targets"
	"focuswatch/app/service/voice"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

//go:embed static/index.html
var static embed.FS

type View struct {
	dashboard.Snapshot
	Chat     []chat.Message `json:"chat"`
	ChatBusy bool           `json:"chat_busy"`
	Voice    voice.State    `json:"voice"`
	Targets  targets.State  `json:"targets"`
}

type Service struct {
	addr     string
	baseCtx  context.Context
	app      *fiber.App
	validate *validator.Validate
	done     chan struct{}

	dashboardSvc *dashboard.Service
	chatSvc      *chat.Service
	targetsSvc   *targets.Service
	voiceSvc     *voice.Service
	eventsSvc    *events.Service
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[context.Context](di),
		cfg.HTTP.Addr,
		do.MustInvoke[*dashboard.Service](di),
		do.MustInvoke[*chat.Service](di),
		do.MustInvoke[*targets.Service](di),
		do.MustInvoke[*voice.Service](di),
		do.MustInvoke[*events.Service](di),
	), nil
}

// NewService builds the HTTP app. Background work started by requests, such
// as calibration, runs on baseCtx.
func NewService(
	baseCtx context.Context,
	addr string,
	dashboardSvc *dashboard.Service,
	chatSvc *chat.Service,
	targetsSvc *targets.Service,
	voiceSvc *voice.Service,
	eventsSvc *events.Service,
) *Service {
	s := &Service{
		addr:         addr,
		baseCtx:      baseCtx,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		done:         make(chan struct{}),
		dashboardSvc: dashboardSvc,
		chatSvc:      chatSvc,
		targetsSvc:   targetsSvc,
		voiceSvc:     voiceSvc,
		eventsSvc:    eventsSvc,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "focuswatch",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger)
	s.routes()

	return s
}

func (s *Service) App() *fiber.App {
	return s.app
}

func (s *Service) routes() {
	s.app.Get("/", s.index)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/state", s.state)
	api.Get("/events", s.stream)

	api.Post("/chat", s.ask)
	api.Post("/chat/reset", s.resetChat)

	api.Get("/targets", s.targets)
	api.Post("/targets/refresh", s.refreshTargets)
	api.Post("/targets/toggle", s.toggleTarget)
	api.Post("/targets/save", s.saveTargets)
	api.Post("/targets/clear", s.clearTargets)

	api.Get("/voice", s.voice)
	api.Post("/voice/toggle", s.toggleVoice)
	api.Post("/voice/calibrate", s.calibrate)
}

// Run serves until ctx is done, then shuts the app down.
func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()

	slog.Info("HTTP server started", "addr", s.addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	close(s.done)

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	slog.Info("HTTP server stopped")

	return nil
}

func (s *Service) View() View {
	return View{
		Snapshot: s.dashboardSvc.Snapshot(),
		Chat:     s.chatSvc.Messages(),
		ChatBusy: s.chatSvc.Busy(),
		Voice:    s.voiceSvc.State(),
		Targets:  s.targetsSvc.State(),
	}
}

func (s *Service) parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	slog.Debug("HTTP request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start))

	return err
}

func upstreamError(err error) error {
	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}
