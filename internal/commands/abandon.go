package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/events"
	"github.com/redtail/muster/internal/tmux"
)

// AbandonOpts holds options for the abandon command.
type AbandonOpts struct {
	Ref    string
	Reason string

	// Kill also kills the agent's tmux session after abandoning.
	Kill bool
}

// Abandon marks an active agent abandoned with an operator-supplied
// reason, and optionally kills its tmux session.
func Abandon(ctx context.Context, d Deps, opts AbandonOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	if opts.Ref == "" {
		return errors.New(errors.EUsage, "agent id is required")
	}
	reason := strings.TrimSpace(opts.Reason)
	if reason == "" {
		return errors.New(errors.EUsage, "--reason is required")
	}

	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}
	rec, err := resolveAgent(reg, opts.Ref)
	if err != nil {
		return err
	}
	if opts.Kill && (rec.Handle == "" || !rec.Backend.Reconcilable()) {
		return errors.New(errors.EUsage, "--kill needs a tmux-backed agent with a handle")
	}

	rec, err = reg.Abandon(rec.ID, reason)
	if err != nil {
		return err
	}
	if err := reg.Save(ctx, false); err != nil {
		return err
	}
	appendAgentEvent(d, rec.ID, "agent_abandoned", events.AbandonedData(rec.Reason))
	_, _ = fmt.Fprintf(stdout, "abandoned: %s\n", rec.ID)

	if !opts.Kill {
		return nil
	}
	if err := d.Tmux.KillSession(ctx, rec.Handle); err != nil {
		if tmux.IsSessionMissing(err) {
			_, _ = fmt.Fprintf(stderr, "no session %s to kill\n", rec.Handle)
			return nil
		}
		return err
	}
	_, _ = fmt.Fprintf(stdout, "killed: %s\n", rec.Handle)
	return nil
}
