// Package pipeline turns a prompt into a structured result: it runs one provider
// call under a retry policy and recovers a JSON value from whatever text comes back.
package pipeline

import (
	"context"
	"fmt"
)

// ProviderCall performs exactly one round-trip to a generative-text provider.
// It must not carry side effects beyond the network call itself because the
// executor may invoke it several times.
type ProviderCall func(ctx context.Context) (string, error)

// ProviderError is returned when every permitted attempt of a ProviderCall failed,
// or when an attempt failed with an error that is not worth retrying.
type ProviderError struct {
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable is implemented by errors that know whether another attempt can help.
// Errors without it are treated as retryable.
type Retryable interface {
	Retryable() bool
}

type permanentError struct{ err error }

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Retryable() bool { return false }

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Method reports which extraction step produced a result.
type Method int

const (
	MethodDirect Method = iota
	MethodUnescaped
	MethodFenced
	MethodTrimmed
	MethodScanned
	MethodFallback
)

func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "direct"
	case MethodUnescaped:
		return "unescaped"
	case MethodFenced:
		return "fenced"
	case MethodTrimmed:
		return "trimmed"
	case MethodScanned:
		return "scanned"
	case MethodFallback:
		return "fallback"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}
