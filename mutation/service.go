// Package mutation defines the Mutation Service contract and its adapters.
//
// A Mutation Service receives the texts of two parent organisms and returns a
// hybrid text for their offspring. Calls are fallible and may be slow; callers
// bound them with a context deadline.
package mutation

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyResult is returned when a service produced no usable text.
	ErrEmptyResult = errors.New("mutation service returned empty text")
	// ErrNoAPIKey is returned when a remote service has no credentials.
	ErrNoAPIKey = errors.New("mutation service API key not configured")
)

// Service produces a hybrid text from two parent texts.
type Service interface {
	Mutate(ctx context.Context, a, b string) (string, error)
}

// Func adapts an ordinary function to a Service.
type Func func(ctx context.Context, a, b string) (string, error)

// Mutate calls f(ctx, a, b).
func (f Func) Mutate(ctx context.Context, a, b string) (string, error) {
	return f(ctx, a, b)
}

// clean trims model output down to a single line of text.
func clean(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "\"'«»")
	if s == "" {
		return "", ErrEmptyResult
	}
	return s, nil
}
