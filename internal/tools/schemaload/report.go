package schemaload

import (
	"fmt"
	"io"
	"strings"
)

// OutcomeKind tags the result of handling one definition.
type OutcomeKind int

const (
	Loaded OutcomeKind = iota + 1
	Skipped
	Failed
	// Planned marks a registration a dry run would have made.
	Planned
)

func (k OutcomeKind) String() string {
	switch k {
	case Loaded:
		return "loaded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Planned:
		return "planned"
	default:
		return "unknown"
	}
}

// Outcome is the result for one catalog file.
type Outcome struct {
	Kind    OutcomeKind
	File    string
	Name    string
	Version string
	Reason  string
	Err     error
}

// Counts are derived from outcomes.
type Counts struct {
	Loaded  int
	Skipped int
	Failed  int
	Planned int
}

// Report is the result of one run.
type Report struct {
	Outcomes []Outcome
	Active   int
	DryRun   bool
}

// Counts folds the outcomes into per-kind totals.
func (r Report) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Kind {
		case Loaded:
			c.Loaded++
		case Skipped:
			c.Skipped++
		case Failed:
			c.Failed++
		case Planned:
			c.Planned++
		}
	}
	return c
}

// WriteSummary prints the end-of-run summary and, when schemas were loaded
// and restartHint is set, the restart instruction.
func (r Report) WriteSummary(w io.Writer, restartHint string) error {
	c := r.Counts()
	rule := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nSummary:\n", rule)
	if r.DryRun {
		fmt.Fprintf(&b, "   Would register: %d\n", c.Planned)
	} else {
		fmt.Fprintf(&b, "   Loaded:  %d\n", c.Loaded)
	}
	fmt.Fprintf(&b, "   Skipped: %d\n", c.Skipped)
	fmt.Fprintf(&b, "   Failed:  %d\n", c.Failed)
	fmt.Fprintf(&b, "%s\n", rule)

	if r.DryRun {
		for _, o := range r.Outcomes {
			if o.Kind == Planned {
				fmt.Fprintf(&b, "   + %s %s (%s)\n", o.Name, o.Version, o.File)
			}
		}
	}
	if c.Loaded > 0 && strings.TrimSpace(restartHint) != "" {
		fmt.Fprintf(&b, "\nRestart the repository to pick up new schemas:\n   Run: %s\n", restartHint)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
