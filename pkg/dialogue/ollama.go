package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cbodonnell/tileworld/pkg/log"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "qwen3:latest"

	// availabilityTTL is how long an availability probe result is reused.
	availabilityTTL = 30 * time.Second
)

// OllamaGenerator asks a local Ollama server for replies.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client

	lock      sync.Mutex
	available bool
	checkedAt time.Time
}

type NewOllamaGeneratorOptions struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOllamaGenerator(opts NewOllamaGeneratorOptions) *OllamaGenerator {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Available probes /api/tags. Results are cached briefly so a dead server is not hit every turn.
func (g *OllamaGenerator) Available(ctx context.Context) bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	if !g.checkedAt.IsZero() && time.Since(g.checkedAt) < availabilityTTL {
		return g.available
	}

	g.checkedAt = time.Now()
	g.available = false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		log.Component("dialogue").Warn("Failed to build Ollama availability request: %v", err)
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		log.Component("dialogue").Warn("Ollama not available at %s: %v", g.baseURL, err)
		return false
	}
	defer resp.Body.Close()
	g.available = resp.StatusCode == http.StatusOK
	if !g.available {
		log.Component("dialogue").Warn("Ollama responded with %d", resp.StatusCode)
	}
	return g.available
}

// Generate posts the rendered prompt to /api/generate and returns the raw model text.
func (g *OllamaGenerator) Generate(ctx context.Context, pc PromptContext) (string, error) {
	if !g.Available(ctx) {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  g.model,
		Prompt: BuildPrompt(pc),
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.8,
			TopP:        0.9,
			MaxTokens:   150,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.markUnavailable()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate returned status %d", resp.StatusCode)
	}

	out := &ollamaGenerateResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return out.Response, nil
}

func (g *OllamaGenerator) markUnavailable() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.available = false
	g.checkedAt = time.Now()
}
