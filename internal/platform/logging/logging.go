// Package logging builds the zerolog logger shared by the bootstrap commands.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects level and output format.
type Config struct {
	Level   string `env:"ELEPHANT_BOOTSTRAP_LOG_LEVEL" envDefault:"info"`
	Format  string `env:"ELEPHANT_BOOTSTRAP_LOG_FORMAT" envDefault:"console"`
	NoColor bool   `env:"ELEPHANT_BOOTSTRAP_LOG_NOCOLOR"`
}

// BindFlags registers logging flags on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Level, "log-level", c.Level, "log level: trace, debug, info, warn, error, disabled")
	fs.StringVar(&c.Format, "log-format", c.Format, "log format: console or json")
}

// New returns a logger writing to w. Progress logs belong on stderr; the run
// summary is printed separately.
func New(w io.Writer, app string, cfg Config) (zerolog.Logger, error) {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		return zerolog.Nop(), fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var out io.Writer
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	case FormatJSON:
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("app", app).Logger(), nil
}

// ParseLevel maps a user-supplied level name to a zerolog level. An empty
// value selects info; "off" and "none" disable logging.
func ParseLevel(raw string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.InfoLevel, true
	case "off", "none":
		return zerolog.Disabled, true
	case "warning":
		name = zerolog.WarnLevel.String()
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return level, true
}
