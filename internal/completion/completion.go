// Package completion streams chat completions with bounded retry on
// provider rate limits.
package completion

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DonatoReis/lynx/internal/resilience"
	"github.com/DonatoReis/lynx/pkg/anthropic"
)

// User-facing failure texts. Provider errors never surface raw; the UI
// shows one of these fixed messages while the detail goes to the log.
const (
	MsgProviderFailure = "Desculpe, não foi possível processar sua solicitação no momento."
	MsgRateLimited     = "Desculpe, estou enfrentando problemas para processar sua solicitação no momento."
)

// Completer produces a completion for an assembled prompt, streaming
// incremental text to onChunk.
type Completer interface {
	Complete(ctx context.Context, systemMessage, userPrompt string, onChunk func(text string)) (string, error)
}

// Client implements Completer on top of the Anthropic wrapper.
type Client struct {
	ai        anthropic.Client
	model     string
	maxTokens int64

	retry resilience.RetryConfig

	// isRetryable decides which provider errors trigger the backoff
	// schedule. Defaults to rate-limit detection.
	isRetryable func(error) bool
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryConfig overrides the retry schedule.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithRetryPredicate overrides the rate-limit check.
func WithRetryPredicate(fn func(error) bool) Option {
	return func(c *Client) { c.isRetryable = fn }
}

// NewClient creates a streaming completion client. The default retry
// policy is five attempts with backoff doubling from one second, applied
// only to rate-limit responses.
func NewClient(ai anthropic.Client, model string, maxTokens int64, opts ...Option) *Client {
	c := &Client{
		ai:        ai,
		model:     model,
		maxTokens: maxTokens,
		retry: resilience.RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: 1 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0,
			OnRetry:        resilience.RetryLogger("anthropic", "complete"),
		},
		isRetryable: anthropic.IsRateLimited,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry.ShouldRetry = c.isRetryable
	return c
}

// Complete streams a completion and returns the full accumulated text.
// Each retry restarts streaming from scratch; chunks already delivered to
// onChunk are not retracted. Rate-limit exhaustion and other provider
// errors return their fixed user-facing message with a nil error.
func (c *Client) Complete(ctx context.Context, systemMessage, userPrompt string, onChunk func(text string)) (string, error) {
	temperature := 1.0
	topP := 1.0
	req := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      systemMessage,
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt}},
		Temperature: &temperature,
		TopP:        &topP,
	}

	result, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (string, error) {
		// Accumulate from scratch on every attempt.
		var acc strings.Builder
		_, err := c.ai.StreamMessage(ctx, req, func(text string) {
			acc.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		})
		if err != nil {
			return "", err
		}
		return acc.String(), nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		if c.isRetryable(err) {
			zap.L().Error("completion rate limited after all attempts", zap.Error(err))
			return MsgRateLimited, nil
		}
		zap.L().Error("completion provider error", zap.Error(err))
		return MsgProviderFailure, nil
	}

	zap.L().Info("completion finished", zap.Int("chars", len(result)))
	return result, nil
}
