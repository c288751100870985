package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyResponse is returned when a provider answered without any text.
var ErrEmptyResponse = errors.New("empty response from provider")

// StatusError is an HTTP-level provider failure classified for retry.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
	retryable  bool
	err        error
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s error (status=%d): %s", e.Provider, e.StatusCode, msg)
}

func (e *StatusError) Unwrap() error   { return e.err }
func (e *StatusError) Retryable() bool { return e.retryable }

// errorFromStatus classifies a provider failure by HTTP status. Rate limits,
// timeouts and server errors are retryable; auth and request errors are not.
// Unknown statuses stay retryable.
func errorFromStatus(provider string, status int, message string, cause error) error {
	e := &StatusError{Provider: provider, StatusCode: status, Message: message, err: cause}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		e.retryable = false
	default:
		e.retryable = true
	}
	return e
}
