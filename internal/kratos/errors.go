package kratos

import (
	"errors"
	"fmt"

	appErrors "github.com/vwency/auth-gateway/pkg/errors"
)

// Kind classifies a flow failure.
type Kind int

const (
	// KindNetwork marks transport-level failures reaching the provider.
	KindNetwork Kind = iota + 1
	// KindProtocol marks non-2xx provider responses and unparseable bodies.
	KindProtocol
	// KindValidation marks local precondition failures raised before any network call.
	KindValidation
	// KindUnauthorized marks absent, invalid or inactive sessions.
	KindUnauthorized
	// KindMissingField marks provider responses that lack a required field.
	KindMissingField
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// FlowError is the error surface of the flow protocol client. Exactly one
// variant applies; the populated fields depend on Kind.
type FlowError struct {
	Kind   Kind
	Status int    // protocol failures: provider HTTP status
	Body   string // protocol failures: provider response body
	Field  string // validation and missing-field failures
	Reason string // validation failures
	Err    error  // network failures: underlying transport error
}

func (e *FlowError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("kratos: provider unreachable: %v", e.Err)
	case KindProtocol:
		return fmt.Sprintf("kratos: provider rejected request: status %d: %s", e.Status, e.Body)
	case KindValidation:
		return fmt.Sprintf("kratos: invalid input: %s: %s", e.Field, e.Reason)
	case KindUnauthorized:
		return "kratos: not authenticated"
	case KindMissingField:
		return fmt.Sprintf("kratos: provider response missing field %q", e.Field)
	default:
		return "kratos: unknown error"
	}
}

// Unwrap exposes the underlying transport error, if any.
func (e *FlowError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport-level failure.
func NetworkError(err error) *FlowError {
	return &FlowError{Kind: KindNetwork, Err: err}
}

// ProtocolError records a provider rejection, preserving status and body.
func ProtocolError(status int, body string) *FlowError {
	return &FlowError{Kind: KindProtocol, Status: status, Body: body}
}

// ValidationError records a local precondition failure for the given field.
func ValidationError(field, reason string) *FlowError {
	return &FlowError{Kind: KindValidation, Field: field, Reason: reason}
}

// UnauthorizedError marks an absent, invalid or inactive session.
func UnauthorizedError() *FlowError {
	return &FlowError{Kind: KindUnauthorized}
}

// MissingFieldError marks a provider response lacking a required field.
func MissingFieldError(name string) *FlowError {
	return &FlowError{Kind: KindMissingField, Field: name}
}

// KindOf extracts the failure kind, or zero for non-flow errors.
func KindOf(err error) Kind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// IsUnauthorized reports whether err is an unauthorized flow failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// AppError maps a flow failure onto the API error taxonomy. Provider internals
// are never leaked for unauthorized failures; protocol failures keep the
// provider's status semantics where they are client errors.
func (e *FlowError) AppError() *appErrors.AppError {
	switch e.Kind {
	case KindNetwork:
		return appErrors.ErrProviderUnavailable.WithInternal(e.Err)
	case KindProtocol:
		status := e.Status
		if status < 400 || status > 499 {
			return appErrors.ErrProviderResponse.WithInternal(e)
		}
		return appErrors.New(appErrors.ErrBadRequest.Code, "Identity provider rejected the request", status).WithInternal(e)
	case KindValidation:
		return appErrors.NewBadRequest(fmt.Sprintf("%s: %s", e.Field, e.Reason))
	case KindUnauthorized:
		return appErrors.ErrUnauthorized
	case KindMissingField:
		return appErrors.ErrProviderResponse.WithInternal(e)
	default:
		return appErrors.ErrInternalServer.WithInternal(e)
	}
}

// AsAppError converts any error into an API error, going through the flow
// taxonomy when possible.
func AsAppError(err error) *appErrors.AppError {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.AppError()
	}
	return appErrors.FromError(err)
}
