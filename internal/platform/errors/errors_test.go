package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestErrorMessage(t *testing.T) {
	if got := New(CodeNotFound, "no such schema").Error(); got != "not_found: no such schema" {
		t.Fatalf("Error() = %q", got)
	}
	if got := New(CodeInternal, "").Error(); got != "internal" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("register: %w", New(CodeAlreadyExists, "exists"))
	if !stderrors.Is(err, New(CodeAlreadyExists, "")) {
		t.Fatal("expected match by code")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected mismatch for different code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(CodeAborted, "a"))); got != CodeAborted {
		t.Fatalf("CodeOf = %q", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf = %q", got)
	}
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(CodeAlreadyExists, ""), true},
		{New(CodeFailedPrecondition, ""), true},
		{fmt.Errorf("wrapped: %w", New(CodeFailedPrecondition, "")), true},
		{New(CodeInternal, ""), false},
		{fmt.Errorf("plain"), false},
	}
	for _, tc := range tests {
		if got := IsConflict(tc.err); got != tc.want {
			t.Fatalf("IsConflict(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestCodeMappings(t *testing.T) {
	tests := []struct {
		code Code
		grpc codes.Code
		http int
	}{
		{CodeInvalidArgument, codes.InvalidArgument, http.StatusBadRequest},
		{CodeMalformed, codes.InvalidArgument, http.StatusBadRequest},
		{CodeBadRoute, codes.NotFound, http.StatusNotFound},
		{CodeAlreadyExists, codes.AlreadyExists, http.StatusConflict},
		{CodeFailedPrecondition, codes.FailedPrecondition, http.StatusPreconditionFailed},
		{CodeUnauthenticated, codes.Unauthenticated, http.StatusUnauthorized},
		{CodeDataLoss, codes.DataLoss, http.StatusInternalServerError},
		{Code("bogus"), codes.Unknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.GRPCCode(); got != tc.grpc {
				t.Fatalf("GRPCCode() = %v, want %v", got, tc.grpc)
			}
			if got := tc.code.HTTPStatus(); got != tc.http {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tc.http)
			}
		})
	}
	if Code("bogus").Valid() || !CodeDataLoss.Valid() {
		t.Fatal("unexpected Valid() result")
	}
}

func TestCodeFromHTTPStatus(t *testing.T) {
	tests := map[int]Code{
		http.StatusFound:              CodeInternal,
		http.StatusBadRequest:         CodeInternal,
		http.StatusUnauthorized:       CodeUnauthenticated,
		http.StatusForbidden:          CodePermissionDenied,
		http.StatusNotFound:           CodeBadRoute,
		http.StatusServiceUnavailable: CodeUnavailable,
		http.StatusTeapot:             CodeUnknown,
	}
	for status, want := range tests {
		if got := CodeFromHTTPStatus(status); got != want {
			t.Fatalf("CodeFromHTTPStatus(%d) = %q, want %q", status, got, want)
		}
	}
}
