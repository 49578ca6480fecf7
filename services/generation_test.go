package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns its scripted errors in order, then succeeds
type scriptedGenerator struct {
	errs  []error
	calls int
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	g.calls++
	if g.calls <= len(g.errs) {
		return "", g.errs[g.calls-1]
	}
	return "generated text", nil
}

func (g *scriptedGenerator) ModelName() string { return "test-model" }

func TestGenerateSucceedsAfterTransientFailures(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		errors.New("503 model overloaded"),
		errors.New("503 model overloaded"),
	}}
	client := NewResilientClient(gen, 3, time.Millisecond)

	result, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated text", result)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerateFatalErrorFailsImmediately(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		errors.New("invalid request: malformed prompt"),
		errors.New("503 model overloaded"),
	}}
	client := NewResilientClient(gen, 3, time.Millisecond)

	start := time.Now()
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 1, gen.calls, "fatal errors must not be retried")
	assert.Less(t, time.Since(start), 100*time.Millisecond, "no retry delay should be incurred")
}

func TestGenerateExhaustsRetries(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		errors.New("429 rate limit exceeded"),
		errors.New("429 rate limit exceeded"),
		errors.New("429 rate limit exceeded"),
	}}
	client := NewResilientClient(gen, 3, time.Millisecond)

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerateRespectsContextCancellation(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{
		errors.New("503 model overloaded"),
		errors.New("503 model overloaded"),
	}}
	client := NewResilientClient(gen, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"503 status", errors.New("rpc error: 503 service unavailable"), true},
		{"429 status", errors.New("429 too many requests"), true},
		{"overloaded marker", errors.New("the model is Overloaded"), true},
		{"rate limit marker", errors.New("rate limit reached for model"), true},
		{"resource exhausted", errors.New("RESOURCE EXHAUSTED: quota"), true},
		{"malformed request", errors.New("400 invalid argument"), false},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}
