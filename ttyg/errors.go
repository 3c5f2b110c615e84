// Copyright (c) Graphwise. All rights reserved.

package ttyg

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrRemoteUnavailable indicates a network/transport failure reaching a
	// remote service. Recoverable by re-issuing the command.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrAssistantService indicates a well-formed error response from the
	// assistant service (auth, rate limit, malformed conversation state).
	ErrAssistantService = errors.New("assistant service error")

	// ErrNotFound indicates a referenced local alias, remote thread, or
	// assistant ID does not exist.
	ErrNotFound = errors.New("not found")

	// ErrToolLoopExceeded indicates the assistant requested more tool-call
	// rounds than the configured cap without producing a final answer.
	ErrToolLoopExceeded = errors.New("tool call rounds exceeded")

	// ErrStore is the base error for thread store persistence failures.
	ErrStore = errors.New("thread store error")

	// ErrNoThread indicates an operation that needs a current thread was
	// issued while none is selected.
	ErrNoThread = errors.New("no current thread")
)

// ServiceError provides rich context for assistant service failures.
// Use errors.As to extract it from a wrapped error chain.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }
