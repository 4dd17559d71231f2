package conversation

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

const (
	defaultAttemptTimeout = 20 * time.Second
	defaultMaxAttempts    = 2
	retryBaseDelay        = 250 * time.Millisecond
)

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
// Each provider gets a per-attempt timeout and a bounded number of attempts
// with jittered delays between them. Cancellation of the caller's context
// stops the whole chain.
type FallbackLLMClient struct {
	primary        LLMClient
	fallback       LLMClient
	logger         *logging.Logger
	attemptTimeout time.Duration
	maxAttempts    int
}

// FallbackOption customises a FallbackLLMClient.
type FallbackOption func(*FallbackLLMClient)

// WithAttemptTimeout caps the duration of a single provider call.
func WithAttemptTimeout(d time.Duration) FallbackOption {
	return func(c *FallbackLLMClient) {
		if d > 0 {
			c.attemptTimeout = d
		}
	}
}

// WithMaxAttempts bounds how many times each provider is tried.
func WithMaxAttempts(n int) FallbackOption {
	return func(c *FallbackLLMClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewFallbackLLMClient creates a new fallback-enabled LLM client.
// If fallback is nil, the client will only use the primary provider.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger, opts ...FallbackOption) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	c := &FallbackLLMClient{
		primary:        primary,
		fallback:       fallback,
		logger:         logger,
		attemptTimeout: defaultAttemptTimeout,
		maxAttempts:    defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete tries the primary provider, then the fallback. It returns the
// first successful response, or the last error when every attempt failed.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, primaryErr := c.tryProvider(ctx, c.primary, req)
	if primaryErr == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return LLMResponse{}, ctx.Err()
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", primaryErr.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return LLMResponse{}, primaryErr
	}

	resp, fallbackErr := c.tryProvider(ctx, c.fallback, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", primaryErr.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	return resp, nil
}

func (c *FallbackLLMClient) tryProvider(ctx context.Context, client LLMClient, req LLMRequest) (LLMResponse, error) {
	if client == nil {
		return LLMResponse{}, errors.New("conversation: llm provider is not configured")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		resp, err := client.Complete(attemptCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return LLMResponse{}, ctx.Err()
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := retryBaseDelay*time.Duration(attempt) + time.Duration(rand.Int63n(int64(retryBaseDelay)))
		c.logger.Debug("llm attempt failed, retrying",
			"attempt", attempt,
			"delay", delay.String(),
			"error", err.Error(),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return LLMResponse{}, ctx.Err()
		}
	}
	return LLMResponse{}, lastErr
}
