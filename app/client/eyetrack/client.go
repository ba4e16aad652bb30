package eyetrack

import (
	"context"
	"fmt"

	"focuswatch/app/client/httpapi"
	"focuswatch/app/client/payload"
	"focuswatch/app/config"

	"github.com/samber/do"
)

const attentionPath = "/attention"

type Snapshot struct {
	Attention float64 `json:"attention"`
	Screen    bool    `json:"screen"`
	EyeLeft   bool    `json:"eye_left"`
	EyeRight  bool    `json:"eye_right"`
	Avg1Min   float64 `json:"att_1min"`
	Avg5Min   float64 `json:"att_5min"`
	Avg20Min  float64 `json:"att_20min"`
	AvgTotal  float64 `json:"att_total"`
}

type Client struct {
	api *httpapi.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(httpapi.New(cfg.Sources.Attention, cfg.Poll.RequestTimeout)), nil
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	doc, err := c.api.Get(ctx, attentionPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch attention: %w", err)
	}

	return decodeSnapshot(doc), nil
}

func decodeSnapshot(doc payload.Document) Snapshot {
	return Snapshot{
		Attention: doc.Float("attention"),
		Screen:    doc.Bool("head_looking_at_screen"),
		EyeLeft:   doc.Bool("left_eye_open"),
		EyeRight:  doc.Bool("right_eye_open"),
		Avg1Min:   doc.Float("attention_1min_avg"),
		Avg5Min:   doc.Float("attention_5min_avg"),
		Avg20Min:  doc.Float("attention_20min_avg"),
		AvgTotal:  doc.Float("attention_total_avg"),
	}
}
