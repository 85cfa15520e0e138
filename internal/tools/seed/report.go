package seed

import (
	"fmt"
	"io"
	"strings"
)

// OutcomeKind tags the result of handling one catalog entry.
type OutcomeKind int

const (
	Created OutcomeKind = iota + 1
	Skipped
	Failed
	// Planned marks a document a dry run would have created.
	Planned
)

func (k OutcomeKind) String() string {
	switch k {
	case Created:
		return "created"
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

// Outcome is the result for one catalog entry.
type Outcome struct {
	Kind    OutcomeKind
	Key     string
	Title   string
	Type    string
	UUID    string
	Version string
	Reason  string
	Err     error
}

// Counts are derived from outcomes.
type Counts struct {
	Created int
	Skipped int
	Failed  int
	Planned int
}

// Report is the result of one run.
type Report struct {
	Outcomes []Outcome
	DryRun   bool
}

// Counts folds the outcomes into per-kind totals.
func (r Report) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Kind {
		case Created:
			c.Created++
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

// WriteSummary prints the end-of-run summary and the indexing hint.
func (r Report) WriteSummary(w io.Writer, statuses []string) error {
	c := r.Counts()
	var b strings.Builder

	if r.DryRun {
		fmt.Fprintf(&b, "\nDry run: %d documents would be created\n", c.Planned)
		for _, o := range r.Outcomes {
			if o.Kind == Planned {
				fmt.Fprintf(&b, "  + %s %q (%s)\n", o.Type, o.Title, o.UUID)
			}
		}
	} else {
		fmt.Fprintf(&b, "\nSeeding complete!\n")
		fmt.Fprintf(&b, "  • %d documents created", c.Created)
		if len(statuses) > 0 {
			fmt.Fprintf(&b, " with status %q", strings.Join(statuses, ","))
		}
		b.WriteString("\n")
	}
	if c.Skipped > 0 {
		fmt.Fprintf(&b, "  • %d skipped\n", c.Skipped)
	}
	if c.Failed > 0 {
		fmt.Fprintf(&b, "  • %d failed\n", c.Failed)
	}
	if c.Created > 0 {
		b.WriteString("\nWait 10-20 seconds for elephant-index to index the documents,\n")
		b.WriteString("   then refresh your browser.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
