package remote

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Sentinel errors used for simple equality-style checks.
var (
	ErrInvalid     = os.ErrInvalid  // invalid argument
	ErrNotExist    = os.ErrNotExist // file does not exist
	ErrConflict    = errors.New("conflict")
	ErrParse       = errors.New("unable to parse")
	ErrRateLimited = errors.New("rate limited")

	// ErrNoSelection is returned when a path cannot be resolved because no
	// repository or branch is selected and none was supplied explicitly.
	ErrNoSelection = errors.New("no repository or branch selected")
)

// ConflictError reports a write rejected because the remote revision no
// longer matches the one the caller observed. It unwraps to ErrConflict.
type ConflictError struct {
	Path        string
	ExpectedSHA string
	// Message is the backend's explanation, when it supplied one.
	Message     string
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("stale revision for %s", e.Path)
	if e.ExpectedSHA != "" {
		msg = fmt.Sprintf("%s (expected sha %s)", msg, e.ExpectedSHA)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NewConflictError constructs a *ConflictError for path.
func NewConflictError(path, expectedSHA, message string) error {
	return &ConflictError{Path: path, ExpectedSHA: expectedSHA, Message: message}
}

// Behavior interfaces used when inspecting error chains via errors.As.
type retryable interface{ Retryable() bool }

// BackendError wraps errors coming from the remote backend. It exposes
// Retryable() to indicate transient failures.
type BackendError struct {
	Backend    string // e.g. "github", "memory"
	Op         string // e.g. "Get", "Put", "List"
	StatusCode int
	// Message is the server-provided explanation, when present.
	Message    string
	Cause      error
	Transient  bool
}

func (e *BackendError) Error() string {
	detail := e.Message
	if detail == "" && e.Cause != nil {
		detail = e.Cause.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status=%d: %s", e.Backend, e.Op, e.StatusCode, detail)
	}
	return fmt.Sprintf("%s %s: %s", e.Backend, e.Op, detail)
}

func (e *BackendError) Unwrap() error   { return e.Cause }
func (e *BackendError) Retryable() bool { return e.Transient }

// NewBackendError constructs a *BackendError describing a failed operation.
func NewBackendError(backend, op string, status int, message string, cause error, transient bool) error {
	return &BackendError{
		Backend:    backend,
		Op:         op,
		StatusCode: status,
		Message:    message,
		Cause:      cause,
		Transient:  transient,
	}
}

// RateLimitError represents a throttling response with a suggested wait.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %s: %s", e.RetryAfter, e.Message)
	}
	if e.Message != "" {
		return "rate limited: " + e.Message
	}
	return "rate limited"
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
func (e *RateLimitError) Retryable() bool      { return true }

// IsConflict reports whether err is (or wraps) a stale-revision conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotExist reports whether err is (or wraps) a not-found condition.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsRetryable inspects the error chain for a Retryable() bool implementation
// and returns its result (false if none found).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// Message returns the most specific human-readable message carried by err:
// the backend's own explanation when one is present, else err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var ce *ConflictError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.Message != "" {
		return rl.Message
	}
	return err.Error()
}
