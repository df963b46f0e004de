// Package commands implements muster CLI commands.
package commands

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redtail/muster/internal/artifact"
	"github.com/redtail/muster/internal/config"
	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/events"
	"github.com/redtail/muster/internal/exec"
	"github.com/redtail/muster/internal/fs"
	"github.com/redtail/muster/internal/ids"
	"github.com/redtail/muster/internal/logging"
	"github.com/redtail/muster/internal/oracle"
	"github.com/redtail/muster/internal/registry"
	"github.com/redtail/muster/internal/tmux"
)

// Deps bundles the shared dependencies the command verbs need. The CLI
// layer builds one per invocation; tests assemble them by hand.
type Deps struct {
	// Config is the effective configuration, defaults applied.
	Config config.Config

	// ConfigPath is where Config came from, or where init would write
	// it; ConfigFound reports whether the file existed at load.
	ConfigPath  string
	ConfigFound bool

	FS fs.FS

	// Runner executes external processes (tmux, the phase oracle).
	Runner exec.CommandRunner

	// Tmux overrides the exec-backed client. Nil builds one from
	// Config.Tmux.Bin and Runner.
	Tmux tmux.Client

	Log *slog.Logger
	Now func() time.Time
}

// withDefaults fills nil dependencies with production implementations.
// Every verb calls it first, so tests only set what they care about.
func (d Deps) withDefaults() Deps {
	if d.FS == nil {
		d.FS = fs.RealFS{}
	}
	if d.Runner == nil {
		d.Runner = exec.NewRealRunner()
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Tmux == nil {
		d.Tmux = tmux.NewExecClient(d.Config.Tmux.Bin, d.Runner)
	}
	return d
}

// newRegistry builds the registry on the configured store path.
func newRegistry(d Deps) *registry.Registry {
	return registry.New(registry.Options{
		FS:          d.FS,
		Path:        d.Config.StorePath(),
		Now:         d.Now,
		Logger:      d.Log,
		LockTimeout: d.Config.Locking.Timeout.Std(),
		LockPoll:    d.Config.Locking.PollInterval.Std(),
	})
}

// openRegistry builds the registry and loads the store.
func openRegistry(ctx context.Context, d Deps) (*registry.Registry, error) {
	reg := newRegistry(d)
	if err := reg.Load(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}

// newReader builds the artifact reader with the configured stability
// bounds.
func newReader(d Deps) *artifact.Reader {
	return artifact.NewReader(artifact.ReaderOptions{
		FS:              d.FS,
		Now:             d.Now,
		Logger:          d.Log,
		StabilityWindow: d.Config.Artifact.StabilityWindow.Std(),
		StabilityBudget: d.Config.Artifact.StabilityBudget.Std(),
	})
}

// newPhaseFunc builds the optional tracker phase oracle.
func newPhaseFunc(d Deps) oracle.PhaseFunc {
	return oracle.New(oracle.Options{
		Cmd:    d.Config.Oracle.Cmd,
		Args:   d.Config.Oracle.Args,
		Runner: d.Runner,
		Logger: d.Log,
	})
}

// appendAgentEvent appends one audit event. Best-effort: a failed
// append is logged and never fails the command.
func appendAgentEvent(d Deps, agentID, event string, data map[string]any) {
	err := events.AppendEvent(d.Config.EventsPath(), events.Event{
		Timestamp: d.Now().UTC().Format(time.RFC3339),
		AgentID:   agentID,
		Event:     event,
		Data:      data,
	})
	if err != nil {
		d.Log.Warn("could not append audit event",
			"event", event, "agent_id", agentID, "error", err.Error())
	}
}

// resolveAgent maps operator input to one record: exact session handle
// first, then exact id, then unique id prefix.
func resolveAgent(reg *registry.Registry, input string) (registry.AgentRecord, error) {
	ref, err := ids.ResolveAgentRefWithHandle(input, agentRefs(reg))
	if err != nil {
		var amb *ids.ErrAmbiguous
		if goerrors.As(err, &amb) {
			return registry.AgentRecord{}, errors.NewWithDetails(errors.EAgentIDAmbiguous,
				err.Error(), map[string]string{"input": input})
		}
		return registry.AgentRecord{}, errors.NewWithDetails(errors.EAgentNotFound,
			err.Error(), map[string]string{"input": input})
	}
	rec, ok := reg.Find(ref.ID)
	if !ok {
		return registry.AgentRecord{}, errors.NewWithDetails(errors.EAgentNotFound,
			fmt.Sprintf("agent not found: %q", input), map[string]string{"input": input})
	}
	return rec, nil
}

func agentRefs(reg *registry.Registry) []ids.AgentRef {
	recs := reg.ListAll()
	refs := make([]ids.AgentRef, 0, len(recs))
	for _, rec := range recs {
		refs = append(refs, ids.AgentRef{
			ID:     rec.ID,
			Handle: rec.Handle,
			Task:   rec.Task,
			Active: rec.Status.IsLive(),
		})
	}
	return refs
}
