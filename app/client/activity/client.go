// Package activity talks to the keyboard/mouse tracking service.
package activity

import (
	"context"
	"fmt"
	"net/http"

	"focuswatch/app/client/httpapi"
	"focuswatch/app/client/payload"
	"focuswatch/app/config"

	"github.com/samber/do"
)

const (
	statusPath        = "/api/status"
	windowsPath       = "/api/windows"
	selectTargetsPath = "/api/select-targets"
	clearTargetsPath  = "/api/clear-targets"
)

type Status struct {
	KeyboardActivity    bool               `json:"keyboard_activity"`
	MouseActivity       bool               `json:"mouse_activity"`
	Status              int                `json:"status"`
	TabChanged          bool               `json:"tab_changed"`
	TargetTab           *string            `json:"target_tab"`
	SelectedTargets     []string           `json:"selected_targets"`
	TargetsCount        int                `json:"targets_count"`
	CurrentActiveTarget *string            `json:"current_active_target"`
	TimeSpent           map[string]float64 `json:"time_spent"`
}

type Window struct {
	Title      string `json:"title"`
	IsActive   bool   `json:"is_active"`
	IsBrowser  bool   `json:"is_browser"`
	IsSelected bool   `json:"is_selected"`
}

type WindowList struct {
	Windows       []Window `json:"windows"`
	TotalCount    int      `json:"total_count"`
	SelectedCount int      `json:"selected_count"`
}

type Selection struct {
	SelectedTargets []string `json:"selected_targets"`
	Count           int      `json:"count"`
}

type selectTargetsRequest struct {
	Targets []string `json:"targets"`
}

type Client struct {
	api *httpapi.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(httpapi.New(cfg.Sources.Activity, cfg.Poll.RequestTimeout)), nil
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	doc, err := c.api.Get(ctx, statusPath)
	if err != nil {
		return Status{}, fmt.Errorf("fetch activity status: %w", err)
	}

	return decodeStatus(doc), nil
}

func (c *Client) Windows(ctx context.Context) (WindowList, error) {
	doc, err := c.api.Get(ctx, windowsPath)
	if err != nil {
		return WindowList{}, fmt.Errorf("list windows: %w", err)
	}

	items := doc.Objects("windows")
	windows := make([]Window, 0, len(items))
	for _, item := range items {
		windows = append(windows, Window{
			Title:      item.String("title"),
			IsActive:   item.Bool("is_active"),
			IsBrowser:  item.Bool("is_browser"),
			IsSelected: item.Bool("is_selected"),
		})
	}

	return WindowList{
		Windows:       windows,
		TotalCount:    doc.Int("total_count"),
		SelectedCount: doc.Int("selected_count"),
	}, nil
}

func (c *Client) SelectTargets(ctx context.Context, targets []string) (Selection, error) {
	if targets == nil {
		targets = []string{}
	}

	doc, err := c.api.Post(ctx, selectTargetsPath, selectTargetsRequest{Targets: targets})
	if err != nil {
		return Selection{}, fmt.Errorf("select targets: %w", err)
	}

	return Selection{
		SelectedTargets: doc.Strings("selected_targets"),
		Count:           doc.Int("count"),
	}, nil
}

func (c *Client) ClearTargets(ctx context.Context) error {
	if _, err := c.api.Do(ctx, http.MethodPost, clearTargetsPath, nil); err != nil {
		return fmt.Errorf("clear targets: %w", err)
	}

	return nil
}

func decodeStatus(doc payload.Document) Status {
	return Status{
		KeyboardActivity:    doc.Bool("keyboard_activity"),
		MouseActivity:       doc.Bool("mouse_activity"),
		Status:              doc.Int("status"),
		TabChanged:          doc.Bool("tab_changed"),
		TargetTab:           doc.OptString("target_tab"),
		SelectedTargets:     doc.Strings("selected_targets"),
		TargetsCount:        doc.Int("targets_count"),
		CurrentActiveTarget: doc.OptString("current_active_target"),
		TimeSpent:           doc.FloatMap("time_spent"),
	}
}
