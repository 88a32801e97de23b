// Package llm provides a unified interface over text-generation providers.
package llm

import (
	"context"
	"time"
)

// Request is a single-turn completion request.
type Request struct {
	System      string // system instruction
	Prompt      string // user content
	MaxTokens   int
	Temperature float64
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the provider's reply.
type Response struct {
	Content string
	Usage   Usage
	Model   string
}

// Provider is the core abstraction over text-generation backends.
type Provider interface {
	// Complete sends a single-turn completion request.
	Complete(ctx context.Context, req Request) (Response, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string // for custom endpoints
	Model      string
	MaxRetries int
	Timeout    time.Duration
}
