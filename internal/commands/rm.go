package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/events"
	"github.com/redtail/muster/internal/registry"
)

// RmOpts holds options for the rm command.
type RmOpts struct {
	Ref string

	// AllDone tombstones every finished agent in one pass.
	AllDone bool
}

// Rm tombstones a finished agent, or with --all-done every finished
// agent at once. Tombstones stay in the store; rm hides a record from
// the default listing, it does not erase history.
func Rm(ctx context.Context, d Deps, opts RmOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	if opts.AllDone && opts.Ref != "" {
		return errors.New(errors.EUsage, "--all-done does not take an agent id")
	}
	if !opts.AllDone && opts.Ref == "" {
		return errors.New(errors.EUsage, "agent id is required (or --all-done)")
	}

	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}
	if opts.AllDone {
		return rmAllDone(ctx, d, reg, stdout)
	}

	rec, err := resolveAgent(reg, opts.Ref)
	if err != nil {
		return err
	}
	if rec.Status.IsLive() {
		return errors.NewWithDetails(errors.EAgentNotActive,
			fmt.Sprintf("agent %q is still active; abandon it first", rec.ID),
			map[string]string{"agent_id": rec.ID})
	}
	if rec.Status == registry.StatusDeleted {
		_, _ = fmt.Fprintf(stdout, "already removed: %s\n", rec.ID)
		return nil
	}

	prior := rec.Status
	if _, err := reg.Remove(rec.ID); err != nil {
		return err
	}
	if err := reg.Save(ctx, false); err != nil {
		return err
	}
	appendAgentEvent(d, rec.ID, "agent_tombstoned", events.TombstonedData(string(prior)))
	_, _ = fmt.Fprintf(stdout, "removed: %s (was %s)\n", rec.ID, prior)
	return nil
}

// rmAllDone tombstones every completed, terminated, or abandoned
// record in a single verbatim save.
func rmAllDone(ctx context.Context, d Deps, reg *registry.Registry, stdout io.Writer) error {
	type removal struct {
		id    string
		prior registry.Status
	}
	var removed []removal
	for _, rec := range reg.List() {
		switch rec.Status {
		case registry.StatusCompleted, registry.StatusTerminated, registry.StatusAbandoned:
			if _, err := reg.Remove(rec.ID); err != nil {
				return err
			}
			removed = append(removed, removal{id: rec.ID, prior: rec.Status})
		}
	}
	if len(removed) == 0 {
		_, _ = fmt.Fprintln(stdout, "no finished agents to remove")
		return nil
	}
	// The whole batch was stamped against the freshly loaded snapshot,
	// so write it verbatim instead of merging each tombstone back in.
	if err := reg.Save(ctx, true); err != nil {
		return err
	}
	for _, r := range removed {
		appendAgentEvent(d, r.id, "agent_tombstoned", events.TombstonedData(string(r.prior)))
		_, _ = fmt.Fprintf(stdout, "removed: %s (was %s)\n", r.id, r.prior)
	}
	return nil
}
