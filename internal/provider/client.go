// Package provider defines the narrow invoke/invoke_batch contract every
// agent uses to call an underlying language model, plus the decorators
// (logging, circuit breaking) that wrap any Client without touching its
// transport.
package provider

import "context"

// Request is one model call: a system prompt, a user prompt, and the
// sampling parameters the caller wants.
type Request struct {
	AgentName    string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// Response is the raw text a model call returned plus enough accounting
// detail for the cost governor and the raw call log.
type Response struct {
	Content      string
	Model        string
	TokensUsed   int
	EstimatedUSD float64
}

// Client is the invoke/invoke_batch contract agents call through. Real
// HTTP-backed implementations are out of scope; this package defines and
// exercises the interface via StubClient.
type Client interface {
	Invoke(ctx context.Context, req Request) (Response, error)
	InvokeBatch(ctx context.Context, reqs []Request) ([]Response, error)
}
