// Package identity exchanges operator credentials for short-lived access
// tokens using the OAuth2 resource-owner password grant.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/louisbranch/elephant-bootstrap/internal/identity"

// Request describes one password-grant exchange. It is built per run and
// never persisted.
type Request struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Validate reports missing fields.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.TokenURL) == "":
		return errors.New("token url is required")
	case strings.TrimSpace(r.ClientID) == "":
		return errors.New("client id is required")
	case strings.TrimSpace(r.Username) == "":
		return errors.New("username is required")
	}
	return nil
}

// AccessToken is a bearer credential scoped to a set of permissions.
type AccessToken struct {
	Value  string
	Type   string
	Expiry time.Time
	Scopes []string
}

// ExchangeError is returned when the identity provider rejects the exchange.
type ExchangeError struct {
	StatusCode  int
	Body        []byte
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, body)
}

// Provider performs password-grant exchanges. It never caches tokens.
type Provider struct {
	request    Request
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient overrides the HTTP client used for the exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProvider validates request and returns a Provider for it.
func NewProvider(request Request, opts ...Option) (*Provider, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	p := &Provider{
		request:    request,
		httpClient: http.DefaultClient,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.httpClient = otel.HTTPClient(p.httpClient)
	return p, nil
}

// Token exchanges the configured credentials for an access token carrying
// scopes (space-joined in the request). A non-2xx answer yields an
// *ExchangeError with the raw response body.
func (p *Provider) Token(ctx context.Context, scopes ...string) (AccessToken, error) {
	ctx, span := p.tracer.Start(ctx, "identity.Token",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("oauth.client_id", p.request.ClientID),
			attribute.String("oauth.scope", strings.Join(scopes, " ")),
		),
	)
	defer span.End()

	cfg := oauth2.Config{
		ClientID:     p.request.ClientID,
		ClientSecret: p.request.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.request.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: scopes,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := cfg.PasswordCredentialsToken(ctx, p.request.Username, p.request.Password)
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "token exchange failed")
		return AccessToken{}, err
	}
	if tok.AccessToken == "" {
		err := errors.New("token exchange: response has no access_token")
		span.SetStatus(codes.Error, err.Error())
		return AccessToken{}, err
	}
	return accessTokenFrom(tok, scopes), nil
}

func translateError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("token exchange: %w", err)
	}
	status := 0
	if retrieveErr.Response != nil {
		status = retrieveErr.Response.StatusCode
	}
	return &ExchangeError{
		StatusCode:  status,
		Body:        retrieveErr.Body,
		Code:        retrieveErr.ErrorCode,
		Description: retrieveErr.ErrorDescription,
	}
}

func accessTokenFrom(tok *oauth2.Token, requested []string) AccessToken {
	out := AccessToken{
		Value:  tok.AccessToken,
		Type:   tok.Type(),
		Expiry: tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		out.Scopes = strings.Fields(scope)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil {
		if out.Expiry.IsZero() {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				out.Expiry = exp.Time
			}
		}
		if len(out.Scopes) == 0 {
			if scope, ok := claims["scope"].(string); ok {
				out.Scopes = strings.Fields(scope)
			}
		}
	}
	if len(out.Scopes) == 0 {
		out.Scopes = append([]string(nil), requested...)
	}
	return out
}
