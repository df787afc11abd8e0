package models

import "fmt"

// Error kinds surfaced to API callers in the "detail" field.
const (
	ErrKindRender        = "RenderError"
	ErrKindUpstreamEmpty = "UpstreamEmptyError"
	ErrKindInternal      = "InternalError"
	ErrKindValidation    = "ValidationError"
	ErrKindRateLimited   = "RateLimited"
)

// Error is the internal error type carrying an error kind.
// It implements the error interface and supports error wrapping via Unwrap.
type Error struct {
	Kind    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ToDetail converts an internal error to the API-facing error body.
func (e *Error) ToDetail() ErrorResponse {
	return ErrorResponse{Detail: e.Error()}
}
