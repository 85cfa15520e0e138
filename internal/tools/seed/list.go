package seed

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteList prints the catalog entries without contacting any service.
func WriteList(w io.Writer, catalog Catalog, ids IDGenerator) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "KEY\tTYPE\tTITLE\tCODE\tLANGUAGE\tPARENT"
	if ids != nil {
		header += "\tUUID"
	}
	fmt.Fprintln(tw, header)
	for _, e := range catalog.Entries {
		parent := e.Parent
		if parent == "" {
			parent = "-"
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s", e.Key, e.Type, e.Title, e.Code, e.Language, parent)
		if ids != nil {
			line += "\t" + ids.NewID(e)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
