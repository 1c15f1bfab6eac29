package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/osool-guide/codifier/internal/domain"
	"github.com/osool-guide/codifier/internal/metrics"
)

// Completion is a chat-completion client implementing domain.Completer.
// It is stateless and safe for concurrent use.
type Completion struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	maxRetries  int
	logger      *zap.Logger
}

// CompletionConfig holds the language model client settings.
type CompletionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	Logger      *zap.Logger
}

// NewCompletion creates an OpenAI-compatible chat completion client.
func NewCompletion(cfg *CompletionConfig) *Completion {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completion{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		logger:      cfg.Logger,
	}
}

// Complete implements domain.Completer. The prompt requires a JSON object
// response which is decoded into out. Transient upstream failures are retried
// with exponential backoff up to MaxRetries additional attempts; the per-call
// timeout spans all attempts.
func (c *Completion) Complete(ctx context.Context, req domain.CompletionRequest, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}

	content, err := c.completeWithRetry(ctx, chatReq)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripCodeFence(content)), out); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "parse_error").Inc()
		return fmt.Errorf("decode completion %q: %w", truncate(content, 200), domain.ErrBadResponse)
	}
	return nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completion) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Completion) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := bo.NextBackOff()
			c.logger.Warn("retrying language model request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				metrics.LLMRequestsTotal.WithLabelValues(c.model, "timeout").Inc()
				return "", fmt.Errorf("completion: %w: %w", domain.ErrDeadline, ctx.Err())
			}
		}

		start := time.Now()
		resp, err := c.client.CreateChatCompletion(ctx, req)
		duration := time.Since(start)

		if err == nil {
			if len(resp.Choices) == 0 {
				metrics.LLMRequestsTotal.WithLabelValues(c.model, "parse_error").Inc()
				return "", fmt.Errorf("empty completion choices: %w", domain.ErrBadResponse)
			}
			metrics.LLMRequestsTotal.WithLabelValues(c.model, "success").Inc()
			metrics.LLMRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())
			if resp.Usage.TotalTokens > 0 {
				metrics.LLMTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
				metrics.LLMTokensTotal.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
				metrics.LLMTokensTotal.WithLabelValues(c.model, "total").Add(float64(resp.Usage.TotalTokens))
			}
			return resp.Choices[0].Message.Content, nil
		}

		if ctx.Err() != nil {
			metrics.LLMRequestsTotal.WithLabelValues(c.model, "timeout").Inc()
			return "", fmt.Errorf("completion: %w: %w", domain.ErrDeadline, ctx.Err())
		}

		lastErr = parseCompletionError(err)
		if !isTransient(err) {
			break
		}
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.model, "upstream_error").Inc()
	return "", lastErr
}

// parseCompletionError wraps upstream API failures with domain.ErrUpstream.
func parseCompletionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrUpstream)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrUpstream)
	}

	return fmt.Errorf("completion request failed: %v: %w", err, domain.ErrUpstream)
}

// isTransient reports whether the upstream failure is worth retrying:
// rate limits, server errors, and transport-level failures.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	return true
}

// stripCodeFence removes a surrounding markdown code block, which some models
// emit even in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
