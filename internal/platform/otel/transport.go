package otel

import (
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

// Transport injects the W3C trace context of each request's context into its
// headers before delegating to base.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return propagatingTransport{base: base}
}

type propagatingTransport struct {
	base http.RoundTripper
}

func (t propagatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	return t.base.RoundTrip(req)
}

// HTTPClient returns a copy of client (or a default client) whose transport
// propagates trace context.
func HTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	wrapped := *client
	wrapped.Transport = Transport(client.Transport)
	return &wrapped
}
