package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

var (
	// ErrSessionNotFound is returned when a live quiz room has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in quiz")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizInactive means the quiz exists but is not accepting attempts.
	ErrQuizInactive = errors.New("quiz is not active")
	// ErrAttemptNotFound indicates an unknown attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted is returned when a completed attempt is submitted again.
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrUserIDRequired   = errors.New("user id required")

	// ErrInvalidInput is the kind carried by every validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalUnavailable covers timeouts, transport failures and malformed replies
	// from external collaborators. It is always recovered from and never reaches users.
	ErrExternalUnavailable = errors.New("external service unavailable")
)

// Error pairs a coded errbuilder error with a sentinel kind so callers can use errors.Is.
type Error struct {
	*errbuilder.ErrBuilder
	Kind error
}

func (e *Error) Error() string {
	if e.ErrBuilder.Unwrap() != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.ErrBuilder.Msg, e.ErrBuilder.Unwrap())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.ErrBuilder.Msg)
}

// Is matches the sentinel kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// InvalidInput reports a rejected argument. field may be empty.
func InvalidInput(field, msg string) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
	if field != "" {
		details := errbuilder.ErrorMap{}
		details.Set(field, errors.New(msg))
		builder = builder.WithDetails(errbuilder.NewErrDetails(details))
	}
	return &Error{ErrBuilder: builder, Kind: ErrInvalidInput}
}

// Unavailable wraps a transport or decoding failure from an external collaborator.
func Unavailable(service string, cause error) error {
	details := errbuilder.ErrorMap{}
	details.Set("service", errors.New(service))
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(service + " unavailable").
		WithDetails(errbuilder.NewErrDetails(details))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return &Error{ErrBuilder: builder, Kind: ErrExternalUnavailable}
}

// TimedOut reports an external call that outlived its deadline.
func TimedOut(service string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(service + " timed out")
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return &Error{ErrBuilder: builder, Kind: ErrExternalUnavailable}
}

// RateLimited reports a call that was refused locally by a limiter.
func RateLimited(service string) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg(service + " rate limited")
	return &Error{ErrBuilder: builder, Kind: ErrExternalUnavailable}
}

// Malformed reports a reply that arrived but failed validation.
func Malformed(service, msg string) error {
	details := errbuilder.ErrorMap{}
	details.Set("payload", errors.New(msg))
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(service + " returned malformed payload").
		WithDetails(errbuilder.NewErrDetails(details))
	return &Error{ErrBuilder: builder, Kind: ErrExternalUnavailable}
}

// IsRetryable reports whether err is worth another attempt. Timeouts are not:
// the caller's deadline is already spent.
func IsRetryable(err error) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	switch de.ErrCode() {
	case errbuilder.CodeUnavailable:
		return true
	default:
		return false
	}
}

// Reason turns an external failure into a short fallback tag.
func Reason(err error) string {
	var de *Error
	if !errors.As(err, &de) {
		if errors.Is(err, context.DeadlineExceeded) {
			return "timeout"
		}
		return "error"
	}
	switch de.ErrCode() {
	case errbuilder.CodeDeadlineExceeded:
		return "timeout"
	case errbuilder.CodeResourceExhausted:
		return "rate_limited"
	case errbuilder.CodeFailedPrecondition:
		return "malformed_response"
	case errbuilder.CodeUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}
