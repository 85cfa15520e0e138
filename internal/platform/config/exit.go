package config

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes shared by the bootstrap commands.
const (
	// ExitFatal reports a run that aborted: bad configuration, no token, no
	// listing snapshot.
	ExitFatal = 1
	// ExitPartial reports a completed batch with failed items, only used when
	// the caller asked for strict mode.
	ExitPartial = 2
)

// ExitCoder is implemented by errors that carry their own process exit code.
type ExitCoder interface {
	ExitCode() int
}

// Exit writes err to stderr and exits with the code carried by err, or
// ExitFatal when it carries none. A nil err returns without exiting.
func Exit(err error) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to w and returns the exit code Exit would use.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	var coder ExitCoder
	if errors.As(err, &coder) {
		if code := coder.ExitCode(); code > 0 {
			return code
		}
	}
	return ExitFatal
}

// PartialFailureError reports a batch that finished with failed items.
type PartialFailureError struct {
	Failed int
	Total  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d items failed", e.Failed, e.Total)
}

// ExitCode implements ExitCoder.
func (e *PartialFailureError) ExitCode() int { return ExitPartial }

// StrictResult returns a *PartialFailureError when strict is set and failed
// is positive, nil otherwise.
func StrictResult(strict bool, failed, total int) error {
	if !strict || failed <= 0 {
		return nil
	}
	return &PartialFailureError{Failed: failed, Total: total}
}
