// Package mcpserver lets MCP clients read the dashboard and talk to the agent.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"focuswatch/app/config"
	"focuswatch/app/service/chat"
	"focuswatch/app/service/dashboard"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName      = "focuswatch"
	serverVersion   = "1.0.0"
	shutdownTimeout = 5 * time.Second
)

type Service struct {
	addr         string
	mcp          *server.MCPServer
	dashboardSvc *dashboard.Service
	chatSvc      *chat.Service
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		cfg.MCP.Addr,
		do.MustInvoke[*dashboard.Service](di),
		do.MustInvoke[*chat.Service](di),
	), nil
}

func NewService(addr string, dashboardSvc *dashboard.Service, chatSvc *chat.Service) *Service {
	s := &Service{
		addr:         addr,
		dashboardSvc: dashboardSvc,
		chatSvc:      chatSvc,
	}

	s.mcp = server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.mcp.AddTool(mcp.NewTool("dashboard_state",
		mcp.WithDescription("Current attention, voice and activity readings with source liveness"),
	), s.handleState)

	s.mcp.AddTool(mcp.NewTool("ask_agent",
		mcp.WithDescription("Ask the focus assistant a question and get its answer"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question for the assistant"),
		),
	), s.handleAsk)

	s.mcp.AddTool(mcp.NewTool("active_tool",
		mcp.WithDescription("Highest priority tool the assistant is running right now"),
	), s.handleActiveTool)

	return s
}

// Run serves MCP over streamable HTTP until ctx is done. An empty address
// disables the server.
func (s *Service) Run(ctx context.Context) error {
	if s.addr == "" {
		slog.Info("MCP server disabled")
		return nil
	}

	httpServer := server.NewStreamableHTTPServer(s.mcp)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(s.addr)
	}()

	slog.Info("MCP server started", "addr", s.addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown mcp server: %w", err)
	}

	slog.Info("MCP server stopped")

	return nil
}

func (s *Service) handleState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.dashboardSvc.Snapshot())
}

func (s *Service) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg, err := s.chatSvc.Ask(ctx, question)
	if errors.Is(err, chat.ErrEmptyQuestion) {
		return mcp.NewToolResultError("question must not be empty"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(msg.Answer), nil
	}

	return mcp.NewToolResultText(msg.Answer), nil
}

func (s *Service) handleActiveTool(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool := s.dashboardSvc.Snapshot().ActiveTool
	if tool == nil {
		return mcp.NewToolResultText("no active tool"), nil
	}

	return jsonResult(tool)
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}
