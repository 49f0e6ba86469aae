package ontokit

import (
	"errors"

	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// Kind classifies a failed Result.
type Kind string

const (
	KindNone      Kind = ""
	KindNotFound  Kind = "not_found"
	KindDuplicate Kind = "duplicate"
	KindConflict  Kind = "conflict"
	KindInvalid   Kind = "invalid"
	KindTransport Kind = "transport"
)

// ConflictMessage is the message of a KindConflict result.
const ConflictMessage = "stale data, please retry"

// Result is the outcome of a service operation. Expected failures are
// reported here instead of through the error return.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a successful result.
func OK(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Fail builds a failed result.
func Fail(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// classify turns an operation error into a Result. Programmer errors and a
// missing selection are returned as errors.
func classify(err error) (Result, error) {
	if err == nil {
		return OK("", nil), nil
	}
	if remote.IsConflict(err) {
		return Fail(KindConflict, ConflictMessage), nil
	}
	for target, kind := range map[error]Kind{
		onto.ErrFragmentNotFound: KindNotFound,
		onto.ErrTestNotFound:     KindNotFound,
		onto.ErrOntologyNotFound: KindNotFound,
		onto.ErrFragmentExists:   KindDuplicate,
		onto.ErrOntologyExists:   KindDuplicate,
	} {
		if errors.Is(err, target) {
			return Fail(kind, target.Error()), nil
		}
	}
	var be *remote.BackendError
	if errors.As(err, &be) {
		if remote.IsNotExist(err) {
			return Fail(KindNotFound, remote.Message(err)), nil
		}
		return Fail(KindTransport, remote.Message(err)), nil
	}
	if errors.Is(err, remote.ErrInvalid) || errors.Is(err, remote.ErrNoSelection) {
		return Result{}, err
	}
	if remote.IsNotExist(err) {
		return Fail(KindNotFound, remote.Message(err)), nil
	}
	return Fail(KindTransport, remote.Message(err)), nil
}
