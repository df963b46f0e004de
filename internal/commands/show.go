package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/render"
	"github.com/redtail/muster/internal/tmux"
)

// ShowOpts holds options for the show command.
type ShowOpts struct {
	// Ref is the agent id, a unique id prefix, or a session handle.
	Ref string

	// Tail captures the last N lines of the agent's live pane.
	Tail int
}

// Show prints the detail view for one agent. Active tmux-backed
// records also get a liveness check on their session.
func Show(ctx context.Context, d Deps, opts ShowOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	if opts.Ref == "" {
		return errors.New(errors.EUsage, "agent id is required")
	}
	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}
	rec, err := resolveAgent(reg, opts.Ref)
	if err != nil {
		return err
	}

	data := render.ShowDataFrom(rec, d.Config.WorkspaceDoc)
	if rec.Status.IsLive() && rec.Backend.Reconcilable() && rec.Handle != "" {
		live, err := d.Tmux.HasSession(ctx, rec.Handle)
		switch {
		case err != nil:
			d.Log.Warn("could not check session liveness",
				"agent_id", rec.ID, "handle", rec.Handle, "error", err.Error())
		case live:
			data.HandleState = "live"
		default:
			data.HandleState = "gone"
		}
	}

	if opts.Tail > 0 {
		if rec.Handle == "" || !rec.Backend.Reconcilable() {
			return errors.New(errors.EUsage, "--tail needs a tmux-backed agent with a handle")
		}
		out, err := d.Tmux.CapturePane(ctx, rec.Handle, opts.Tail)
		switch {
		case tmux.IsSessionMissing(err):
			_, _ = fmt.Fprintf(stderr, "no session %s to tail\n", rec.Handle)
		case err != nil:
			return err
		default:
			data.Tail = out
			data.TailSession = rec.Handle
		}
	}

	return render.WriteShow(stdout, data)
}
