package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/redtail/muster/internal/events"
	"github.com/redtail/muster/internal/reconcile"
	"github.com/redtail/muster/internal/tmux"
)

// ReconcileOpts holds options for the reconcile command.
type ReconcileOpts struct {
	// DryRun previews the transitions without touching the store.
	DryRun bool
}

// Reconcile repairs active records whose tmux session has vanished.
// When tmux itself cannot be queried the pass aborts before judging
// anything; an empty session list from a broken tmux would read as
// "every agent died".
func Reconcile(ctx context.Context, d Deps, opts ReconcileOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}

	live, err := tmux.LiveHandles(ctx, d.Tmux)
	if err != nil {
		return err
	}

	rc := reconcile.New(reconcile.Options{
		Registry:     reg,
		Reader:       newReader(d),
		WorkspaceDoc: d.Config.WorkspaceDoc,
		Logger:       d.Log,
		DryRun:       opts.DryRun,
	})
	report, err := rc.Run(ctx, live)
	if err != nil {
		return err
	}

	verb := "reconciled"
	if opts.DryRun {
		verb = "would reconcile"
	}
	for _, tr := range report.Transitions {
		_, _ = fmt.Fprintf(stdout, "%s: %s %s -> %s (%s)\n",
			verb, tr.AgentID, tr.From, tr.To, tr.Reason)
		if !opts.DryRun {
			appendAgentEvent(d, tr.AgentID, "agent_reconciled",
				events.ReconciledData(string(tr.From), string(tr.To), tr.Reason))
		}
	}
	if !opts.DryRun && len(report.Transitions) > 0 {
		appendAgentEvent(d, "", "reconcile_finished",
			events.ReconcileFinishedData(report.Checked, report.Completed(), report.Terminated(), report.Skipped))
	}

	_, _ = fmt.Fprintf(stdout, "checked: %d\n", report.Checked)
	_, _ = fmt.Fprintf(stdout, "live: %d\n", report.Live)
	_, _ = fmt.Fprintf(stdout, "completed: %d\n", report.Completed())
	_, _ = fmt.Fprintf(stdout, "terminated: %d\n", report.Terminated())
	_, _ = fmt.Fprintf(stdout, "skipped: %d\n", report.Skipped)
	return nil
}
