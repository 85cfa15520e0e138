package discovery

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/timeouts"
)

// LookupHost resolves a hostname for local fallback checks. It is exposed for tests.
var LookupHost = net.DefaultResolver.LookupHost

// ResolveLocalFallbackURL returns rawURL unchanged when its host resolves.
// If host resolution fails, it falls back to 127.0.0.1 with the same scheme,
// port and path. Compose service names such as "elephant-repository" only
// resolve inside the compose network, so this lets the same configuration
// work from the host.
func ResolveLocalFallbackURL(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	host := parsed.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return rawURL
	}
	if ctx == nil {
		ctx = context.Background()
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeouts.HostLookup)
	defer cancel()
	if _, err := LookupHost(lookupCtx, host); err == nil {
		return rawURL
	}
	if port := parsed.Port(); port != "" {
		parsed.Host = net.JoinHostPort("127.0.0.1", port)
	} else {
		parsed.Host = "127.0.0.1"
	}
	return parsed.String()
}
