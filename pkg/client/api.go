package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/messages"
)

const DefaultServerURL = "http://localhost:8080"

// APIClient calls the world server's HTTP routes.
type APIClient struct {
	baseURL string
	http    *http.Client
}

type NewAPIClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

func NewAPIClient(opts NewAPIClientOptions) *APIClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// StreamURL is the WebSocket address of the snapshot stream.
func (c *APIClient) StreamURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func (c *APIClient) State(ctx context.Context) (*messages.WorldSnapshot, error) {
	snapshot := &messages.WorldSnapshot{}
	if err := c.do(ctx, http.MethodGet, "/state", nil, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *APIClient) ScreenMap(ctx context.Context, screen string) (*messages.ScreenMap, error) {
	m := &messages.ScreenMap{}
	if err := c.do(ctx, http.MethodGet, "/screens/"+url.PathEscape(screen)+"/map", nil, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *APIClient) Join(ctx context.Context, name string) error {
	var body interface{}
	if name != "" {
		body = map[string]string{"name": name}
	}
	return c.do(ctx, http.MethodPost, "/player/join", body, nil)
}

func (c *APIClient) Leave(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/player/leave", nil, nil)
}

func (c *APIClient) SendIntent(ctx context.Context, intent types.Intent) error {
	return c.do(ctx, http.MethodPost, "/player/input", intent, nil)
}

func (c *APIClient) TogglePause(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/control/pause", nil, nil)
}

func (c *APIClient) CycleSpeed(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/control/speed", nil, nil)
}

func (c *APIClient) ActivateScreen(ctx context.Context, screen string) error {
	return c.do(ctx, http.MethodPost, "/screens/"+url.PathEscape(screen)+"/activate", nil, nil)
}

func (c *APIClient) StartDialogue(ctx context.Context, npc string) (*dialogue.Conversation, error) {
	conversation := &dialogue.Conversation{}
	if err := c.do(ctx, http.MethodPost, "/dialogue/"+url.PathEscape(npc)+"/start", nil, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// SayResult is an NPC's reply and whether it closed the conversation.
type SayResult struct {
	dialogue.Reply
	Ended bool `json:"ended"`
}

func (c *APIClient) Say(ctx context.Context, npc, message string) (*SayResult, error) {
	result := &SayResult{}
	if err := c.do(ctx, http.MethodPost, "/dialogue/"+url.PathEscape(npc)+"/say", map[string]string{"message": message}, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *APIClient) EndDialogue(ctx context.Context, npc string) error {
	return c.do(ctx, http.MethodPost, "/dialogue/"+url.PathEscape(npc)+"/end", nil, nil)
}

// do sends body as JSON and decodes the response into out when out is non-nil.
// Non-2xx responses become a *StatusError.
func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
