package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	rootpkg "github.com/getpup/seeder"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// eventPrinter renders migrator progress for the operator.
type eventPrinter struct {
	out     io.Writer
	pretend bool
}

func (p *eventPrinter) handle(e rootpkg.Event) {
	switch e.Kind {
	case rootpkg.EventSeeding:
		if !p.pretend {
			fmt.Fprintf(p.out, "Seeding: %s\n", e.Seed)
		}
	case rootpkg.EventSeeded:
		fmt.Fprintf(p.out, "Seeded:  %s\n", e.Seed)
	case rootpkg.EventRollingBack:
		if !p.pretend {
			fmt.Fprintf(p.out, "Rolling back: %s\n", e.Seed)
		}
	case rootpkg.EventRolledBack:
		fmt.Fprintf(p.out, "Rolled back:  %s\n", e.Seed)
	case rootpkg.EventPretend:
		if e.Trace == nil || len(e.Trace.Statements) == 0 {
			fmt.Fprintf(p.out, "%s: (no statements)\n", e.Seed)
			return
		}
		for _, statement := range e.Trace.Statements {
			fmt.Fprintf(p.out, "%s: %s\n", e.Seed, statement)
		}
	case rootpkg.EventNothingToRun:
		fmt.Fprintln(p.out, "Nothing to seed.")
	case rootpkg.EventNothingToRollback:
		fmt.Fprintln(p.out, "Nothing to rollback.")
	}
}

func validateStatusFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported status format %q: use text, json or yaml", format)
	}
}

// writeStatus renders statuses as an aligned table, JSON or YAML.
func writeStatus(w io.Writer, format string, statuses []rootpkg.Status) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(statuses)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(statuses); err != nil {
			return err
		}
		return encoder.Close()
	case formatText:
	default:
		return validateStatusFormat(format)
	}

	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, "No seeders found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Ran?\tSeeder\tBatch")
	for _, status := range statuses {
		ran, batch := "N", ""
		if status.Applied {
			ran, batch = "Y", strconv.Itoa(status.Batch)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ran, status.Seed, batch)
	}
	return tw.Flush()
}
