// Package agentapi talks to the conversational agent service.
package agentapi

import (
	"context"
	"fmt"

	"focuswatch/app/client/httpapi"
	"focuswatch/app/config"

	"github.com/samber/do"
)

const (
	askPath          = "/ask"
	lastResponsePath = "/last_response"
	activeToolsPath  = "/active_tools"
)

type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type LastResponse struct {
	LastResponse string `json:"last_response"`
	Answer       string `json:"answer,omitempty"`
	Alert        *Alert `json:"alert,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
}

type Client struct {
	api *httpapi.Client
	// questions wait for the model, so they get their own timeout
	askAPI *httpapi.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	client := New(httpapi.New(cfg.Sources.Agent, cfg.Poll.RequestTimeout))
	client.askAPI = httpapi.New(cfg.Sources.Agent, cfg.Chat.AskTimeout)

	return client, nil
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api, askAPI: api}
}

// BaseURL is shown to the user when the agent cannot be reached.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// Ask sends a question and returns the answer, empty if the agent gave none.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	doc, err := c.askAPI.Post(ctx, askPath, askRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("ask agent: %w", err)
	}

	return doc.String("answer"), nil
}

func (c *Client) LastResponse(ctx context.Context) (LastResponse, error) {
	doc, err := c.api.Get(ctx, lastResponsePath)
	if err != nil {
		return LastResponse{}, fmt.Errorf("fetch last response: %w", err)
	}

	result := LastResponse{
		LastResponse: doc.String("last_response"),
		Answer:       doc.String("answer"),
	}
	if alert, ok := doc.Object("alert"); ok {
		result.Alert = &Alert{
			Type:    alert.String("type"),
			Message: alert.String("message"),
		}
	}

	return result, nil
}

func (c *Client) ActiveTools(ctx context.Context) ([]string, error) {
	doc, err := c.api.Get(ctx, activeToolsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch active tools: %w", err)
	}

	return doc.Strings("active_tools"), nil
}
