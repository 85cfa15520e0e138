// Package seed creates the minimal set of documents a fresh repository needs,
// using the create-only document write API.
package seed

import (
	"errors"
	"strings"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/logging"
	"github.com/spf13/pflag"
)

// Config holds seed command configuration.
type Config struct {
	Connection     config.Connection
	Log            logging.Config
	Catalog        string   `env:"ELEPHANT_SEED_CATALOG"`
	Statuses       []string `env:"ELEPHANT_SEED_STATUS" envSeparator:"," envDefault:"usable"`
	ACLUnit        string   `env:"ELEPHANT_SEED_ACL_UNIT" envDefault:"core://unit/redaktionen"`
	ACLPermissions []string `env:"ELEPHANT_SEED_ACL_PERMISSIONS" envSeparator:"," envDefault:"r,w"`
	StableIDs      bool     `env:"ELEPHANT_SEED_STABLE_IDS"`
	Ledger         string   `env:"ELEPHANT_SEED_LEDGER"`
	Strict         bool
	DryRun         bool
	List           bool
}

// BindFlags registers the command flags on fs. Values already loaded from
// the environment become the flag defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	c.Connection.BindFlags(fs)
	c.Log.BindFlags(fs)
	fs.StringVar(&c.Catalog, "catalog", c.Catalog, "seed catalog file, JSON with comments (default: built-in sections)")
	fs.StringSliceVar(&c.Statuses, "status", c.Statuses, "statuses set on each created document")
	fs.StringVar(&c.ACLUnit, "acl-unit", c.ACLUnit, "unit granted access to each created document")
	fs.StringSliceVar(&c.ACLPermissions, "acl-permissions", c.ACLPermissions, "permissions granted to --acl-unit")
	fs.BoolVar(&c.StableIDs, "stable-ids", c.StableIDs, "derive document ids from catalog keys; existing documents are reported as skipped")
	fs.StringVar(&c.Ledger, "ledger", c.Ledger, "SQLite file recording created documents; recorded entries are skipped")
	fs.BoolVar(&c.Strict, "strict", c.Strict, "exit non-zero when any document failed")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "print the documents that would be created without contacting any service")
	fs.BoolVar(&c.List, "list", c.List, "print the catalog and exit")
}

// Validate reports configuration errors before any network call.
func (c Config) Validate() error {
	if err := c.Connection.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ACLUnit) != "" && len(c.ACLPermissions) == 0 {
		return errors.New("acl permissions are required when an acl unit is set")
	}
	for _, p := range c.ACLPermissions {
		if strings.TrimSpace(p) == "" {
			return errors.New("acl permissions must not be empty")
		}
	}
	return nil
}

// WriteOptions returns the per-document write settings.
func (c Config) WriteOptions() WriteOptions {
	return WriteOptions{
		Statuses:       c.Statuses,
		ACLUnit:        strings.TrimSpace(c.ACLUnit),
		ACLPermissions: c.ACLPermissions,
	}
}

// IDs returns the id generator selected by the configuration.
func (c Config) IDs() IDGenerator {
	if c.StableIDs {
		return StableIDs{}
	}
	return RandomIDs{}
}
