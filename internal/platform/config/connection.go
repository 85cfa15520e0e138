package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/discovery"
	"github.com/spf13/pflag"
)

// Connection holds the settings every bootstrap command needs to reach the
// repository and the identity provider.
type Connection struct {
	RepositoryURL string        `env:"ELEPHANT_REPOSITORY_URL"`
	TwirpService  string        `env:"ELEPHANT_TWIRP_SERVICE" envDefault:"elephant.repository"`
	TokenURL      string        `env:"ELEPHANT_OIDC_TOKEN_URL"`
	ClientID      string        `env:"ELEPHANT_CLIENT_ID" envDefault:"elephant"`
	ClientSecret  string        `env:"ELEPHANT_CLIENT_SECRET" envDefault:"elephant-secret"`
	Username      string        `env:"ELEPHANT_USERNAME" envDefault:"dev"`
	Password      string        `env:"ELEPHANT_PASSWORD" envDefault:"dev"`
	Timeout       time.Duration `env:"ELEPHANT_BOOTSTRAP_TIMEOUT" envDefault:"0s"`
	LocalFallback bool          `env:"ELEPHANT_LOCAL_FALLBACK" envDefault:"true"`
}

// BindFlags registers connection flags on fs, defaulting to the values already
// loaded into c.
func (c *Connection) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.RepositoryURL, "repository-url", c.RepositoryURL, "repository base URL (default: ELEPHANT_REPOSITORY_URL or "+discovery.DefaultBaseURL(discovery.ServiceRepository)+")")
	fs.StringVar(&c.TwirpService, "twirp-service", c.TwirpService, "protobuf package prefix of the repository procedures")
	fs.StringVar(&c.TokenURL, "token-url", c.TokenURL, "OpenID Connect token endpoint (default: ELEPHANT_OIDC_TOKEN_URL or the local realm)")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "OAuth client id")
	fs.StringVar(&c.ClientSecret, "client-secret", c.ClientSecret, "OAuth client secret")
	fs.StringVar(&c.Username, "username", c.Username, "operator username for the password grant")
	fs.StringVar(&c.Password, "password", c.Password, "operator password for the password grant")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "overall run timeout (0 = none)")
	fs.BoolVar(&c.LocalFallback, "local-fallback", c.LocalFallback, "rewrite unresolvable hosts to 127.0.0.1")
}

// Resolve fills empty endpoints with the local stack conventions and, when
// LocalFallback is set, rewrites hosts that do not resolve.
func (c Connection) Resolve(ctx context.Context) Connection {
	c.RepositoryURL = discovery.OrDefaultBaseURL(c.RepositoryURL, discovery.ServiceRepository)
	c.TokenURL = strings.TrimSpace(c.TokenURL)
	if c.TokenURL == "" {
		c.TokenURL = discovery.DefaultTokenURL()
	}
	c.TwirpService = strings.TrimSpace(c.TwirpService)
	if c.TwirpService == "" {
		c.TwirpService = discovery.DefaultTwirpService
	}
	if c.LocalFallback {
		c.RepositoryURL = discovery.ResolveLocalFallbackURL(ctx, c.RepositoryURL)
		c.TokenURL = discovery.ResolveLocalFallbackURL(ctx, c.TokenURL)
	}
	return c
}

// Validate reports the first unusable connection setting.
func (c Connection) Validate() error {
	if err := validateHTTPURL("repository url", c.RepositoryURL); err != nil {
		return err
	}
	if err := validateHTTPURL("token url", c.TokenURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.TwirpService) == "" {
		return fmt.Errorf("twirp service is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("client id is required")
	}
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func validateHTTPURL(label, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s is required", label)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be http or https, got %q", label, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", label, raw)
	}
	return nil
}
