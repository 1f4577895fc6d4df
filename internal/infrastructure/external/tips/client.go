// Package tips provides the study tip generators: a metered client for an
// OpenAI-compatible chat completion API and a local heuristic fallback
// that always succeeds.
package tips

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/language-study/study-hub/internal/application/command"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/pkg/circuitbreaker"
	"github.com/language-study/study-hub/pkg/logger"
	"github.com/language-study/study-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds the upstream API configuration.
type Config struct {
	APIKey      string
	APIURL      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns defaults for the OpenAI chat completion API. The
// API key has no default.
func DefaultConfig() Config {
	return Config{
		APIURL:      "https://api.openai.com/v1/chat/completions",
		Model:       "gpt-3.5-turbo",
		MaxTokens:   120,
		Temperature: 0.7,
		Timeout:     6 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client calls an OpenAI-compatible chat completion API. Requests retry on
// transient failures and a circuit breaker sheds load while the upstream
// is down, so a dead API fails fast instead of eating the request budget.
type Client struct {
	config  Config
	http    *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
	log     *logger.Logger
}

// NewClient creates the client. Returns an error when no API key is set;
// the caller then runs without a premium generator.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tips: %w: api key", shared.ErrEmptyValue)
	}
	if log == nil {
		log = logger.Default()
	}
	retryCfg := retry.DefaultConfig()
	retryCfg.Attempts = 2

	c := &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		retry:  retryCfg,
		log:    log.With(logger.Component("tips_client")),
	}
	c.breaker = circuitbreaker.New(5, 30*time.Second, func(from, to circuitbreaker.State) {
		c.log.Warn("tip upstream circuit state changed",
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return c, nil
}

// GenerateTip implements command.TipGenerator against the upstream API.
func (c *Client) GenerateTip(ctx context.Context, req command.TipRequest) (string, error) {
	prompt := buildPrompt(req)

	var tip string
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, c.retry, func(ctx context.Context) error {
			out, callErr := c.complete(ctx, prompt)
			if callErr != nil {
				return callErr
			}
			tip = out
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrExternalService, err)
	}
	return tip, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a concise language study coach. Give one short, practical study tip. Answer in at most two sentences."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", retry.Stop(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", retry.Stop(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	// client errors other than rate limiting will not heal on retry
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return "", retry.Stop(fmt.Errorf("upstream status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", retry.Stop(fmt.Errorf("upstream error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	tip := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if tip == "" {
		return "", fmt.Errorf("empty completion")
	}
	return tip, nil
}

func buildPrompt(req command.TipRequest) string {
	switch req.Kind {
	case command.KindSkill:
		return fmt.Sprintf(
			"The learner is practicing the skill %q, currently %q. Suggest one concrete next exercise.",
			req.Name, req.Status,
		)
	default:
		return fmt.Sprintf(
			"The learner is studying the vocabulary word %q, currently %q. Suggest one concrete way to memorize or practice it.",
			req.Word, req.Status,
		)
	}
}
