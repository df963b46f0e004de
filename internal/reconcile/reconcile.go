// Package reconcile aligns the agent registry with the supervisor's
// ground truth. A record is only ever moved forward: active records
// whose session vanished become completed or terminated, depending on
// what their coordination artifact shows.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redtail/muster/internal/artifact"
	"github.com/redtail/muster/internal/logging"
	"github.com/redtail/muster/internal/registry"
)

// SignalReader reads coordination-artifact signals. *artifact.Reader
// satisfies it; tests substitute fakes.
type SignalReader interface {
	ReadSignals(ctx context.Context, path string) (artifact.Signals, error)
}

// Transition records one repaired agent.
type Transition struct {
	AgentID string
	Handle  string
	From    registry.Status
	To      registry.Status

	// Reason is the operator-facing explanation for the transition.
	Reason string
}

// Report summarizes one reconciliation pass.
type Report struct {
	// Checked counts active records whose session liveness was judged.
	Checked int

	// Live counts checked records whose session is still running.
	Live int

	// Skipped counts active records this reconciler cannot judge:
	// handle-less backends and records without a handle.
	Skipped int

	Transitions []Transition
}

// Completed counts transitions into the completed status.
func (r Report) Completed() int { return r.count(registry.StatusCompleted) }

// Terminated counts transitions into the terminated status.
func (r Report) Terminated() int { return r.count(registry.StatusTerminated) }

func (r Report) count(to registry.Status) int {
	n := 0
	for _, t := range r.Transitions {
		if t.To == to {
			n++
		}
	}
	return n
}

// Reconciler repairs records whose supervisor session is gone.
type Reconciler struct {
	reg          *registry.Registry
	reader       SignalReader
	workspaceDoc string
	log          *slog.Logger
	dryRun       bool
}

// Options configures a Reconciler. Registry, Reader, and WorkspaceDoc
// are required.
type Options struct {
	Registry     *registry.Registry
	Reader       SignalReader
	WorkspaceDoc string
	Logger       *slog.Logger

	// DryRun reports the transitions a pass would make without
	// mutating or persisting anything.
	DryRun bool
}

func New(opts Options) *Reconciler {
	rc := &Reconciler{
		reg:          opts.Registry,
		reader:       opts.Reader,
		workspaceDoc: opts.WorkspaceDoc,
		log:          opts.Logger,
		dryRun:       opts.DryRun,
	}
	if rc.log == nil {
		rc.log = logging.Discard()
	}
	return rc
}

// Run checks every active record against liveHandles and repairs the
// stale ones, then persists the store once. liveHandles holds the
// session names the supervisor currently reports. The caller must have
// verified the supervisor is actually reachable: an empty set from a
// broken supervisor would terminate every agent in the store.
//
// Decision for a dead session, in order:
//  1. artifact phase equals "complete" (case-insensitive) → completed
//  2. artifact gone from disk                             → completed
//  3. anything else                                       → terminated
//
// Running twice with the same liveHandles is a no-op the second time:
// every repaired record has left the active status. A dry-run pass
// produces the same report but leaves the records and the store
// untouched.
func (rc *Reconciler) Run(ctx context.Context, liveHandles map[string]bool) (Report, error) {
	var report Report
	for _, rec := range rc.reg.Active() {
		if !rec.Backend.Reconcilable() || rec.Handle == "" {
			report.Skipped++
			continue
		}
		report.Checked++
		if liveHandles[rec.Handle] {
			report.Live++
			continue
		}

		to, reason := rc.judge(ctx, rec)
		if !rc.dryRun {
			var err error
			if to == registry.StatusCompleted {
				_, err = rc.reg.Complete(rec.ID)
			} else {
				_, err = rc.reg.Terminate(rec.ID)
			}
			if err != nil {
				// Active came from the same in-memory set, so a transition
				// cannot miss; surface it rather than guessing.
				return report, err
			}
			rc.log.Info("reconciled agent",
				"agent_id", rec.ID, "handle", rec.Handle, "to", string(to), "reason", reason)
		}
		report.Transitions = append(report.Transitions, Transition{
			AgentID: rec.ID,
			Handle:  rec.Handle,
			From:    registry.StatusActive,
			To:      to,
			Reason:  reason,
		})
	}

	if rc.dryRun || len(report.Transitions) == 0 {
		return report, nil
	}
	if err := rc.reg.Save(ctx, false); err != nil {
		return report, err
	}
	return report, nil
}

// judge decides the terminal status for one dead session.
func (rc *Reconciler) judge(ctx context.Context, rec registry.AgentRecord) (registry.Status, string) {
	path := rec.ArtifactPath(rc.workspaceDoc)
	if path == "" {
		// The record never declared an artifact; nothing to consult.
		return registry.StatusCompleted, "session gone, no artifact declared"
	}
	sig, err := rc.reader.ReadSignals(ctx, path)
	if err != nil {
		rc.log.Warn("artifact unreadable during reconcile",
			"agent_id", rec.ID, "path", path, "error", err.Error())
		return registry.StatusTerminated, "session gone, artifact unreadable"
	}
	if sig.Missing {
		return registry.StatusCompleted, "session gone, artifact removed"
	}
	if strings.EqualFold(sig.Phase, "complete") {
		return registry.StatusCompleted, fmt.Sprintf("session gone, phase %q", sig.Phase)
	}
	if sig.Phase == "" {
		return registry.StatusTerminated, "session gone before declaring completion"
	}
	return registry.StatusTerminated, fmt.Sprintf("session gone at phase %q", sig.Phase)
}
