// Package twirp is a minimal JSON client for Twirp procedures.
package twirp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName  = "github.com/louisbranch/elephant-bootstrap/internal/twirp"
	pathPrefix  = "/twirp/"
	maxBodySize = 16 << 20
)

// Caller issues one procedure call. *Client implements it.
type Caller interface {
	Call(ctx context.Context, procedure string, body any, token string) (Result, error)
}

// Client posts JSON requests to {base}/twirp/{service}.{procedure}.
type Client struct {
	baseURL    string
	service    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient returns a client for the Twirp service package (for example
// "elephant.repository") served under baseURL.
func NewClient(baseURL, service string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", baseURL)
	}
	service = strings.Trim(strings.TrimSpace(service), ".")
	if service == "" {
		return nil, fmt.Errorf("service is required")
	}
	c := &Client{
		baseURL:    baseURL,
		service:    service,
		httpClient: http.DefaultClient,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = otel.HTTPClient(c.httpClient)
	return c, nil
}

// URL returns the endpoint of procedure, e.g. "Schemas/ListActive".
func (c *Client) URL(procedure string) string {
	return c.baseURL + pathPrefix + c.service + "." + strings.TrimPrefix(procedure, "/")
}

// Call posts body as JSON to procedure. token is sent as a bearer credential
// when non-empty. The status is checked before the body is trusted: any
// non-2xx answer becomes a *RemoteProcedureError.
func (c *Client) Call(ctx context.Context, procedure string, body any, token string) (Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: encode request: %w", procedure, err)
	}

	service, method, _ := strings.Cut(procedure, "/")
	ctx, span := c.tracer.Start(ctx, "twirp "+procedure,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "twirp"),
			attribute.String("rpc.service", c.service+"."+service),
			attribute.String("rpc.method", method),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(procedure), bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%s: build request: %w", procedure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return Result{}, fmt.Errorf("%s: %w", procedure, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read response")
		return Result{}, fmt.Errorf("%s: read response: %w", procedure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rpcErr := newRemoteProcedureError(procedure, resp.StatusCode, raw)
		span.SetAttributes(attribute.String("twirp.error_code", string(rpcErr.Code)))
		span.SetStatus(codes.Error, rpcErr.Error())
		return Result{}, rpcErr
	}
	return Result{StatusCode: resp.StatusCode, Body: raw}, nil
}
