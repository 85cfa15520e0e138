// Package schemaload registers the schema definitions of a local catalog that
// the repository does not report as active.
package schemaload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/logging"
	"github.com/spf13/pflag"
)

// Config holds schemas command configuration.
type Config struct {
	Connection  config.Connection
	Log         logging.Config
	Dir         string   `env:"ELEPHANT_SCHEMA_DIR" envDefault:"./revisorschemas"`
	Include     []string `env:"ELEPHANT_SCHEMA_INCLUDE" envSeparator:"," envDefault:"*.json"`
	Exclude     []string `env:"ELEPHANT_SCHEMA_EXCLUDE" envSeparator:"," envDefault:"*testdata*"`
	Policy      Policy   `env:"ELEPHANT_SCHEMA_POLICY" envDefault:"presence"`
	RestartHint string   `env:"ELEPHANT_SCHEMA_RESTART_HINT" envDefault:"docker compose restart elephant-repository"`
	Strict      bool
	DryRun      bool
}

// BindFlags registers the command flags on fs. Values already loaded from
// the environment become the flag defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	c.Connection.BindFlags(fs)
	c.Log.BindFlags(fs)
	fs.StringVar(&c.Dir, "dir", c.Dir, "schema directory (default: ELEPHANT_SCHEMA_DIR or ./revisorschemas)")
	fs.StringSliceVar(&c.Include, "include", c.Include, "glob of schema files to load, relative to --dir")
	fs.StringSliceVar(&c.Exclude, "exclude", c.Exclude, "glob of files or directories to ignore")
	fs.Var(&c.Policy, "policy", "when to register: presence (only names not active) or newer-version (also newer local versions; changes behavior)")
	fs.StringVar(&c.RestartHint, "restart-hint", c.RestartHint, "command printed after new schemas are registered (empty = none)")
	fs.BoolVar(&c.Strict, "strict", c.Strict, "exit non-zero when any schema failed to register")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "list active schemas and print the plan without registering")
}

// Validate reports configuration errors before any network call.
func (c Config) Validate() error {
	if err := c.Connection.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Dir) == "" {
		return errors.New("schema directory is required")
	}
	if len(c.Include) == 0 {
		return errors.New("at least one include pattern is required")
	}
	switch c.Policy {
	case PolicyPresence, PolicyNewerVersion:
	default:
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	return nil
}
