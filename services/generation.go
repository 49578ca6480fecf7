package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts = 3
	defaultRetryBase   = time.Second
)

// transientMarkers are the error text fragments that identify overload or
// rate limiting on the generation backend. Anything else is treated as fatal
// and fails without a retry.
var transientMarkers = []string{
	"503",
	"429",
	"overloaded",
	"rate limit",
	"unavailable",
	"resource exhausted",
}

// ResilientClient wraps a ContentGenerator with bounded exponential backoff
// and jitter, distinguishing retryable from fatal failures. Callers must not
// retry fatal errors themselves.
type ResilientClient struct {
	generator   ContentGenerator
	maxAttempts int
	retryBase   time.Duration
}

func NewResilientClient(generator ContentGenerator, maxAttempts int, retryBase time.Duration) *ResilientClient {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	return &ResilientClient{
		generator:   generator,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
	}
}

func (c *ResilientClient) ModelName() string {
	return c.generator.ModelName()
}

// Generate calls the generator up to maxAttempts times. Transient failures
// wait base * 2^(attempt-1) plus jitter before the next attempt; fatal
// failures propagate immediately. Exhaustion wraps the last error in
// ErrGeneration.
func (c *ResilientClient) Generate(ctx context.Context, prompt string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBase
	policy.Multiplier = 2
	policy.RandomizationFactor = 0.5
	policy.MaxElapsedTime = 0

	var result string
	attempt := 0
	operation := func() error {
		attempt++
		response, err := c.generator.GenerateContent(ctx, prompt)
		if err == nil {
			result = response
			return nil
		}
		if !IsRetryable(err) {
			slog.Error("Generation failed with fatal error", "attempt", attempt, "error", err)
			return backoff.Permanent(err)
		}
		slog.Warn("Generation failed with transient error, will retry", "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1)), ctx))
	if err != nil {
		return "", fmt.Errorf("%w: after %d attempt(s): %v", ErrGeneration, attempt, err)
	}
	return result, nil
}

// IsRetryable reports whether the error signals a transient overload or
// rate-limit condition worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
