package agent

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingEndpoint means a remote agent has no URL configured.
	ErrMissingEndpoint = errors.New("no endpoint configured")
	// ErrMissingCredential means a hosted agent has no API key.
	ErrMissingCredential = errors.New("no API credential configured")
	// ErrRetriesExhausted wraps the last failure once a retry budget runs out.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrMalformedResponse means an agent answered with something that is not a move.
	ErrMalformedResponse = errors.New("malformed move response")
)

// Kind classifies agent failures for the orchestrator.
type Kind int

const (
	// KindConfig is raised before any network attempt.
	KindConfig Kind = iota + 1
	// KindNetwork covers transport failures and exhausted network retries.
	KindNetwork
	// KindProtocol covers malformed responses and non-retryable status codes.
	KindProtocol
	// KindLegality means the agent kept proposing illegal moves.
	KindLegality
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindLegality:
		return "legality"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the terminal failure of one Decide call.
type Error struct {
	Agent    string
	Kind     Kind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s agent: %s error after %d attempt(s): %v", e.Agent, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s agent: %s error: %v", e.Agent, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or zero if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// IsTransientStatus reports whether an HTTP status is worth retrying.
func IsTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable by Backoff.Do.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// StatusError is an unexpected HTTP status from an agent endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}
