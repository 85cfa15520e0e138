package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
)

// Error is the structured error type shared by the RPC and tool layers.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message from the remote side or caller
	Metadata map[string]string // Additional context (Twirp meta)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates an error carrying remote metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsConflict reports whether err is a write rejected because the target
// already exists or its precondition no longer holds.
func IsConflict(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Code.GRPCCode() {
	case codes.AlreadyExists, codes.FailedPrecondition:
		return true
	default:
		return false
	}
}
