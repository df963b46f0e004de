package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/redtail/muster/internal/registry"
	"github.com/redtail/muster/internal/render"
)

// LsOpts holds options for the ls command.
type LsOpts struct {
	// All includes tombstoned records.
	All bool

	// JSON selects machine-readable output.
	JSON bool

	// Styled selects bordered table output. The CLI sets it from TTY
	// detection.
	Styled bool
}

// Ls lists registered agents, oldest first.
func Ls(ctx context.Context, d Deps, opts LsOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}

	recs := reg.List()
	if opts.All {
		recs = reg.ListAll()
	}
	if opts.JSON {
		if recs == nil {
			recs = []registry.AgentRecord{}
		}
		return render.WriteJSON(stdout, recs)
	}
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(stdout, "no agents registered")
		return nil
	}

	now := d.Now()
	rows := make([]render.AgentRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, render.AgentRowFrom(rec, now))
	}
	render.WriteAgentTable(stdout, rows, opts.Styled)
	return nil
}
