// Package fakerepo serves a recording fake of the identity token endpoint and
// the repository Twirp procedures for tests.
package fakerepo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/discovery"
	perrors "github.com/louisbranch/elephant-bootstrap/internal/platform/errors"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/tidwall/gjson"
)

const twirpPrefix = "/twirp/" + discovery.DefaultTwirpService + "."

// Call is one recorded procedure call.
type Call struct {
	Procedure     string
	Authorization string
	Body          []byte
}

// Get reads a gjson path from the request body.
func (c Call) Get(path string) gjson.Result {
	return gjson.GetBytes(c.Body, path)
}

// Response is what a HandlerFunc answers with. Body is JSON-encoded unless it
// is a string, which is written as-is.
type Response struct {
	Status int
	Body   any
}

// HandlerFunc overrides the default behavior of one procedure.
type HandlerFunc func(call Call) Response

// Server is the fake. All methods are safe for concurrent use.
type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	calls         []Call
	tokenRequests []url.Values
	tokenStatus   int
	tokenBody     string
	active        map[string]string
	order         []string
	documents     map[string][]byte
	handlers      map[string]HandlerFunc
}

// New starts a fake that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		active:    map[string]string{},
		documents: map[string][]byte{},
		handlers:  map[string]HandlerFunc{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// RepositoryURL is the base URL of the fake repository.
func (s *Server) RepositoryURL() string { return s.srv.URL }

// TokenURL is the fake token endpoint for the default realm.
func (s *Server) TokenURL() string {
	return discovery.TokenURL(s.srv.URL, discovery.DefaultRealm)
}

// Client returns an HTTP client for the fake.
func (s *Server) Client() *http.Client { return s.srv.Client() }

// FailToken makes the token endpoint answer status with body.
func (s *Server) FailToken(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenStatus = status
	s.tokenBody = body
}

// SetActive replaces the active schema set.
func (s *Server) SetActive(schemas ...repository.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = map[string]string{}
	s.order = nil
	for _, schema := range schemas {
		s.activate(schema.Name, schema.Version)
	}
}

// Handle overrides the default behavior of procedure, e.g. "Schemas/Register".
func (s *Server) Handle(procedure string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[procedure] = fn
}

// Calls returns the recorded calls to procedure, or every call when
// procedure is empty.
func (s *Server) Calls(procedure string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if procedure == "" || c.Procedure == procedure {
			out = append(out, c)
		}
	}
	return out
}

// TokenRequests returns the forms posted to the token endpoint.
func (s *Server) TokenRequests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.tokenRequests...)
}

// Documents returns the number of stored documents.
func (s *Server) Documents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.documents)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/protocol/openid-connect/token") {
		s.serveToken(w, r)
		return
	}
	if !strings.HasPrefix(r.URL.Path, twirpPrefix) {
		writeTwirpError(w, perrors.CodeBadRoute, "no handler for "+r.URL.Path)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeTwirpError(w, perrors.CodeMalformed, err.Error())
		return
	}
	call := Call{
		Procedure:     strings.TrimPrefix(r.URL.Path, twirpPrefix),
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	handler := s.handlers[call.Procedure]
	s.mu.Unlock()

	var resp Response
	if handler != nil {
		resp = handler(call)
	} else {
		resp = s.defaultResponse(call)
	}
	writeResponse(w, resp)
}

func (s *Server) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.tokenRequests = append(s.tokenRequests, r.PostForm)
	status, body := s.tokenStatus, s.tokenBody
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "fake-token",
		"token_type":   "Bearer",
		"expires_in":   300,
		"scope":        r.PostForm.Get("scope"),
	})
}

func (s *Server) defaultResponse(call Call) Response {
	switch call.Procedure {
	case repository.ProcListActive:
		s.mu.Lock()
		defer s.mu.Unlock()
		schemas := make([]repository.Schema, 0, len(s.order))
		for _, name := range s.order {
			schemas = append(schemas, repository.Schema{Name: name, Version: s.active[name]})
		}
		return Response{Status: http.StatusOK, Body: map[string]any{"schemas": schemas}}

	case repository.ProcRegister:
		if call.Authorization == "" {
			return twirpError(perrors.CodeUnauthenticated, "no bearer token")
		}
		name := call.Get("schema.name").String()
		if name == "" {
			return twirpError(perrors.CodeInvalidArgument, "schema name is required")
		}
		if call.Get("activate").Bool() {
			s.mu.Lock()
			s.activate(name, call.Get("schema.version").String())
			s.mu.Unlock()
		}
		return Response{Status: http.StatusOK, Body: map[string]any{}}

	case repository.ProcUpdate:
		if call.Authorization == "" {
			return twirpError(perrors.CodeUnauthenticated, "no bearer token")
		}
		uuid := call.Get("uuid").String()
		if uuid == "" {
			return twirpError(perrors.CodeInvalidArgument, "uuid is required")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.documents[uuid]; exists && call.Get("ifMatch").String() == repository.IfMatchAbsent {
			return twirpError(perrors.CodeFailedPrecondition, "document already exists")
		}
		s.documents[uuid] = call.Body
		return Response{Status: http.StatusOK, Body: map[string]any{"uuid": uuid, "version": "1"}}

	default:
		return twirpError(perrors.CodeBadRoute, "unknown procedure "+call.Procedure)
	}
}

// activate requires s.mu to be held.
func (s *Server) activate(name, version string) {
	if _, ok := s.active[name]; !ok {
		s.order = append(s.order, name)
	}
	s.active[name] = version
}

func twirpError(code perrors.Code, msg string) Response {
	return Response{
		Status: code.HTTPStatus(),
		Body:   map[string]string{"code": string(code), "msg": msg},
	}
}

// TwirpError builds a Twirp error response for custom handlers.
func TwirpError(code perrors.Code, msg string) Response {
	return twirpError(code, msg)
}

func writeTwirpError(w http.ResponseWriter, code perrors.Code, msg string) {
	writeResponse(w, twirpError(code, msg))
}

func writeResponse(w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if raw, ok := resp.Body.(string); ok {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, raw)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
