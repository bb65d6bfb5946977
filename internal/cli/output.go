package cli

import (
	"fmt"
	"io"

	"github.com/roach88/svctrack/internal/harness"
)

// writeResult renders a scenario result in the requested format.
func writeResult(w io.Writer, res *harness.Result, format string) error {
	if format == "json" {
		data, err := harness.MarshalResult(res)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	fmt.Fprintf(w, "scenario: %s\n", res.Scenario)
	for _, ev := range res.Trace {
		fmt.Fprintf(w, "  %-9s %s (id=%d ranking=%d)\n", ev.Hook, ev.Name, ev.ID, ev.Ranking)
	}
	fmt.Fprintf(w, "size=%d revision=%d", res.Size, res.Revision)
	if res.Selected != "" {
		fmt.Fprintf(w, " selected=%s", res.Selected)
	}
	fmt.Fprintln(w)
	return nil
}
