package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/metric"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pkg/retry"
)

// Client is the completion interface the pipeline steps depend on. A nil
// Client means the LLM is disabled and rule-based fallbacks apply.
type Client interface {
	// Complete sends a system and user message and returns the assistant's
	// text reply.
	Complete(ctx context.Context, system, user string) (string, error)
}

// ClientConfig configures the OpenAI-backed client.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	// RequestsPerSecond bounds the outbound call rate. Zero disables
	// limiting.
	RequestsPerSecond float64
	MaxAttempts       int
}

type openaiClient struct {
	api     *openai.Client
	cfg     ClientConfig
	limiter *rate.Limiter
	retry   retry.Config
	logger  *slog.Logger
}

// NewClient builds a rate-limited OpenAI client. An empty API key returns
// a nil Client so callers fall back to rule-based behavior.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &openaiClient{
		api:     openai.NewClientWithConfig(apiCfg),
		cfg:     cfg,
		limiter: limiter,
		retry:   errors.RetryPolicy(cfg.MaxAttempts),
		logger:  logger.With("component", "LLMClient"),
	}
}

// Instrument wraps a client with per-purpose call counters. A nil client
// stays nil so the rule-based fallback semantics are preserved.
func Instrument(c Client, m *metric.Metrics, purpose string) Client {
	if c == nil || m == nil {
		return c
	}
	return &instrumentedClient{inner: c, metrics: m, purpose: purpose}
}

type instrumentedClient struct {
	inner   Client
	metrics *metric.Metrics
	purpose string
}

func (c *instrumentedClient) Complete(ctx context.Context, system, user string) (string, error) {
	c.metrics.LLMCalls.WithLabelValues(c.purpose).Inc()
	content, err := c.inner.Complete(ctx, system, user)
	if err != nil {
		c.metrics.LLMCallErrors.WithLabelValues(c.purpose).Inc()
	}
	return content, err
}

func (c *openaiClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", errors.Wrap(err, "LLMClient", "Complete", "rate limit wait")
		}
	}

	start := time.Now()
	content, err := retry.DoWithResult(ctx, c.retry, func() (string, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.cfg.Model,
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			if !errors.IsTransient(err) {
				return "", retry.NonRetryable(err)
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", retry.NonRetryable(errors.ErrLLMEmptyResponse)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", errors.WrapTransient(err, "LLMClient", "Complete", "chat completion")
	}
	if content == "" {
		return "", errors.ErrLLMEmptyResponse
	}

	c.logger.Debug("completion finished",
		"model", c.cfg.Model,
		"duration", time.Since(start))
	return content, nil
}
