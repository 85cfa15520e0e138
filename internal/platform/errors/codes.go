// Package errors provides structured errors keyed by Twirp wire codes.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable Twirp error code as it appears on the wire.
type Code string

const (
	CodeCanceled           Code = "canceled"
	CodeUnknown            Code = "unknown"
	CodeInvalidArgument    Code = "invalid_argument"
	CodeMalformed          Code = "malformed"
	CodeDeadlineExceeded   Code = "deadline_exceeded"
	CodeNotFound           Code = "not_found"
	CodeBadRoute           Code = "bad_route"
	CodeAlreadyExists      Code = "already_exists"
	CodePermissionDenied   Code = "permission_denied"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeResourceExhausted  Code = "resource_exhausted"
	CodeFailedPrecondition Code = "failed_precondition"
	CodeAborted            Code = "aborted"
	CodeOutOfRange         Code = "out_of_range"
	CodeUnimplemented      Code = "unimplemented"
	CodeInternal           Code = "internal"
	CodeUnavailable        Code = "unavailable"
	CodeDataLoss           Code = "dataloss"
)

// Valid reports whether c is one of the codes a Twirp server may return.
func (c Code) Valid() bool {
	switch c {
	case CodeCanceled, CodeUnknown, CodeInvalidArgument, CodeMalformed,
		CodeDeadlineExceeded, CodeNotFound, CodeBadRoute, CodeAlreadyExists,
		CodePermissionDenied, CodeUnauthenticated, CodeResourceExhausted,
		CodeFailedPrecondition, CodeAborted, CodeOutOfRange, CodeUnimplemented,
		CodeInternal, CodeUnavailable, CodeDataLoss:
		return true
	default:
		return false
	}
}

// GRPCCode maps Twirp codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeCanceled:
		return codes.Canceled
	case CodeInvalidArgument, CodeMalformed:
		return codes.InvalidArgument
	case CodeDeadlineExceeded:
		return codes.DeadlineExceeded
	case CodeNotFound, CodeBadRoute:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	case CodePermissionDenied:
		return codes.PermissionDenied
	case CodeUnauthenticated:
		return codes.Unauthenticated
	case CodeResourceExhausted:
		return codes.ResourceExhausted
	case CodeFailedPrecondition:
		return codes.FailedPrecondition
	case CodeAborted:
		return codes.Aborted
	case CodeOutOfRange:
		return codes.OutOfRange
	case CodeUnimplemented:
		return codes.Unimplemented
	case CodeInternal:
		return codes.Internal
	case CodeUnavailable:
		return codes.Unavailable
	case CodeDataLoss:
		return codes.DataLoss
	default:
		return codes.Unknown
	}
}

// HTTPStatus returns the status a Twirp server uses for c.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCanceled, CodeDeadlineExceeded:
		return http.StatusRequestTimeout
	case CodeInvalidArgument, CodeMalformed, CodeOutOfRange:
		return http.StatusBadRequest
	case CodeNotFound, CodeBadRoute:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeAborted:
		return http.StatusConflict
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodeUnimplemented:
		return http.StatusNotImplemented
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeFromHTTPStatus derives a code for responses that carry no Twirp error
// body, e.g. a proxy answering in front of the service.
func CodeFromHTTPStatus(status int) Code {
	switch {
	case status >= 300 && status < 400:
		return CodeInternal
	case status == http.StatusBadRequest:
		return CodeInternal
	case status == http.StatusUnauthorized:
		return CodeUnauthenticated
	case status == http.StatusForbidden:
		return CodePermissionDenied
	case status == http.StatusNotFound:
		return CodeBadRoute
	case status == http.StatusTooManyRequests,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return CodeUnavailable
	default:
		return CodeUnknown
	}
}
