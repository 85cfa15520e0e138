package schemaload

import (
	"fmt"
	"strings"
)

// Policy decides when a locally defined schema should be registered.
type Policy string

const (
	// PolicyPresence registers only schemas whose name is not active.
	PolicyPresence Policy = "presence"
	// PolicyNewerVersion also registers schemas whose local version is newer
	// than the active major version.
	PolicyNewerVersion Policy = "newer-version"
)

// String implements pflag.Value.
func (p *Policy) String() string { return string(*p) }

// Set implements pflag.Value.
func (p *Policy) Set(value string) error {
	switch Policy(strings.TrimSpace(value)) {
	case PolicyPresence, "":
		*p = PolicyPresence
	case PolicyNewerVersion:
		*p = PolicyNewerVersion
	default:
		return fmt.Errorf("unknown policy %q (want %s or %s)", value, PolicyPresence, PolicyNewerVersion)
	}
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string { return "policy" }

// Action is what the reconciler does with a definition.
type Action int

const (
	ActionSkip Action = iota
	ActionRegister
)

// Step is the planned handling of one definition.
type Step struct {
	Definition Definition
	Action     Action
	Reason     string
}

// Decide plans whether def is registered against the active snapshot.
func Decide(def Definition, active ActiveSet, policy Policy) Step {
	if def.Malformed() {
		return Step{Definition: def, Action: ActionSkip, Reason: def.Problem}
	}
	if !active.Has(def.Name) {
		return Step{Definition: def, Action: ActionRegister, Reason: "not active"}
	}
	if policy != PolicyNewerVersion {
		return Step{Definition: def, Action: ActionSkip, Reason: "already active"}
	}
	major, ok := active.Major(def.Name)
	if !ok {
		return Step{Definition: def, Action: ActionSkip, Reason: "already active (version unknown)"}
	}
	if def.Version > major {
		return Step{Definition: def, Action: ActionRegister, Reason: fmt.Sprintf("newer than active v%d", major)}
	}
	return Step{Definition: def, Action: ActionSkip, Reason: fmt.Sprintf("already active at v%d", major)}
}

// UnmarshalText lets env parsing fill a Policy.
func (p *Policy) UnmarshalText(text []byte) error {
	return p.Set(string(text))
}
