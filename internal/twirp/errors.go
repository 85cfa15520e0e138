package twirp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	perrors "github.com/louisbranch/elephant-bootstrap/internal/platform/errors"
)

// RemoteProcedureError is a non-2xx answer from a procedure.
type RemoteProcedureError struct {
	Procedure  string
	StatusCode int
	Code       perrors.Code
	Message    string
	Meta       map[string]string
	// Body is the response text as received.
	Body []byte
}

func (e *RemoteProcedureError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %s", e.Procedure, e.Code, msg)
}

// Unwrap exposes the wire code as a *perrors.Error so callers can classify
// with perrors.IsConflict and errors.Is.
func (e *RemoteProcedureError) Unwrap() error {
	return perrors.WithMetadata(e.Code, e.Message, e.Meta)
}

type wireError struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Meta map[string]string `json:"meta"`
}

func newRemoteProcedureError(procedure string, status int, body []byte) *RemoteProcedureError {
	out := &RemoteProcedureError{
		Procedure:  procedure,
		StatusCode: status,
		Body:       body,
	}
	var wire wireError
	if err := json.Unmarshal(body, &wire); err == nil && perrors.Code(wire.Code).Valid() {
		out.Code = perrors.Code(wire.Code)
		out.Message = wire.Msg
		out.Meta = wire.Meta
		return out
	}
	out.Code = perrors.CodeFromHTTPStatus(status)
	out.Message = strings.TrimSpace(string(body))
	return out
}

// Describe returns the operator-facing reason for a failed call: the remote
// message, else the remote code, else the error text.
func Describe(err error) string {
	var rpcErr *RemoteProcedureError
	if errors.As(err, &rpcErr) {
		if rpcErr.Message != "" {
			return rpcErr.Message
		}
		return string(rpcErr.Code)
	}
	return err.Error()
}
