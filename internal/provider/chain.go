// Package provider implements the ordered fallback chain shared by the news,
// LLM and image integrations: adapters are tried in priority order and the
// first success wins. Fallback is the retry mechanism; no adapter is retried.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/tunetools/tunetools-api/internal/logger"
)

// Adapter is one external provider in a chain. P is the request type, R the
// result type. Fetch must return an error for anything the caller should not
// accept, including payloads that fail validation.
type Adapter[P, R any] interface {
	Name() string
	Fetch(ctx context.Context, params P) (R, error)
}

// Failure records one adapter's error for ExhaustedError reporting
type Failure struct {
	Provider string
	Err      error
}

// ExhaustedError is returned when every adapter in a chain failed
type ExhaustedError struct {
	Operation string
	Failures  []Failure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return fmt.Sprintf("all %s providers exhausted: [%s]", e.Operation, strings.Join(parts, "; "))
}

// Chain is an ordered list of interchangeable adapters for one operation
type Chain[P, R any] struct {
	operation string
	adapters  []Adapter[P, R]
	onFailure func(operation, adapter string)
}

// NewChain builds a chain; operation names the capability for logging and
// error messages (e.g. "news", "llm", "image").
func NewChain[P, R any](operation string, adapters ...Adapter[P, R]) *Chain[P, R] {
	return &Chain[P, R]{operation: operation, adapters: adapters}
}

// OnFailure registers a hook invoked each time an adapter fails and the
// chain falls through to the next one. Used for fallback metrics.
func (c *Chain[P, R]) OnFailure(fn func(operation, adapter string)) {
	c.onFailure = fn
}

// Len reports how many adapters are configured
func (c *Chain[P, R]) Len() int {
	return len(c.adapters)
}

// Do invokes adapters in order until one succeeds. It returns the result and
// the name of the adapter that produced it; if every adapter fails the error
// is an *ExhaustedError carrying the individual failures.
func (c *Chain[P, R]) Do(ctx context.Context, params P) (R, string, error) {
	var zero R
	failures := make([]Failure, 0, len(c.adapters))

	for _, adapter := range c.adapters {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		result, err := adapter.Fetch(ctx, params)
		if err == nil {
			return result, adapter.Name(), nil
		}

		logger.Warn("provider failed, falling back", logger.Fields{
			"operation": c.operation,
			"provider":  adapter.Name(),
			"error":     err.Error(),
		})
		if c.onFailure != nil {
			c.onFailure(c.operation, adapter.Name())
		}
		failures = append(failures, Failure{Provider: adapter.Name(), Err: err})
	}

	return zero, "", &ExhaustedError{Operation: c.operation, Failures: failures}
}

// AdapterFunc adapts a bare function into an Adapter
type AdapterFunc[P, R any] struct {
	AdapterName string
	Func        func(ctx context.Context, params P) (R, error)
}

func (f AdapterFunc[P, R]) Name() string { return f.AdapterName }

func (f AdapterFunc[P, R]) Fetch(ctx context.Context, params P) (R, error) {
	return f.Func(ctx, params)
}
