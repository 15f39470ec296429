package api

import "context"

// Invoker is the single capability agents need from a model backend: a
// blocking, context-bounded inference call. Every discovery and extraction
// agent is built against this interface; *Client is the Anthropic-backed
// implementation.
type Invoker interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

var _ Invoker = (*Client)(nil)
