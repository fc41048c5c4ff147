package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an operation failed.
type FailureKind int

const (
	// KindValidation: input rejected before any network call.
	KindValidation FailureKind = iota + 1
	// KindUnauthenticated: bad credentials, or a missing/expired session token.
	KindUnauthenticated
	// KindForbidden: role does not permit the operation.
	KindForbidden
	// KindRemote: any other non-2xx response.
	KindRemote
	// KindTransport: the request never completed.
	KindTransport
)

func (k FailureKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindRemote:
		return "remote"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NetworkErrorMessage is the message carried by every transport failure.
const NetworkErrorMessage = "network error"

// Failure is the failure branch of a Result. Message is user-displayable.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int // 0 when no response was received
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Is lets errors.Is match a Failure against another Failure of the same kind,
// and a transport Failure against ErrTransport.
func (f *Failure) Is(target error) bool {
	if target == ErrTransport {
		return f.Kind == KindTransport
	}
	var other *Failure
	if errors.As(target, &other) {
		return other.Kind == f.Kind && (other.Message == "" || other.Message == f.Message)
	}
	return false
}

func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// TransportFailure builds the failure returned when the remote was unreachable.
func TransportFailure() *Failure {
	return &Failure{Kind: KindTransport, Message: NetworkErrorMessage}
}

// Status discriminates the three outcomes of a Result.
type Status int

const (
	StatusSuccess Status = iota + 1
	// StatusUnassigned: the call succeeded but the caller has nothing to
	// show (an owner without a store). Distinct from failure.
	StatusUnassigned
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnassigned:
		return "unassigned"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome every core operation returns.
type Result[T any] struct {
	Status  Status
	Value   T
	Message string
	Failure *Failure
}

func Success[T any](v T) Result[T] {
	return Result[T]{Status: StatusSuccess, Value: v}
}

func SuccessWithMessage[T any](v T, message string) Result[T] {
	return Result[T]{Status: StatusSuccess, Value: v, Message: message}
}

func Unassigned[T any](v T, message string) Result[T] {
	return Result[T]{Status: StatusUnassigned, Value: v, Message: message}
}

func Fail[T any](f *Failure) Result[T] {
	return Result[T]{Status: StatusFailure, Failure: f}
}

func (r Result[T]) OK() bool { return r.Status == StatusSuccess }

// Err returns the failure as an error, or nil.
func (r Result[T]) Err() error {
	if r.Status != StatusFailure || r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Match dispatches on the outcome. All three handlers are required; a nil
// handler panics so that a missing branch shows up in the first test run.
func Match[T, R any](r Result[T], onSuccess func(T) R, onUnassigned func(T, string) R, onFailure func(*Failure) R) R {
	if onSuccess == nil || onUnassigned == nil || onFailure == nil {
		panic("domain: Match requires all three handlers")
	}
	switch r.Status {
	case StatusSuccess:
		return onSuccess(r.Value)
	case StatusUnassigned:
		return onUnassigned(r.Value, r.Message)
	case StatusFailure:
		return onFailure(r.Failure)
	default:
		panic(fmt.Sprintf("domain: result has invalid status %d", int(r.Status)))
	}
}
