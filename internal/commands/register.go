package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redtail/muster/internal/core"
	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/events"
	"github.com/redtail/muster/internal/registry"
	"github.com/redtail/muster/internal/tmux"
)

// RegisterOpts holds options for the register command.
type RegisterOpts struct {
	// ID is the agent id. Empty mints one from the task.
	ID string

	// Task is the required work description.
	Task string

	// Handle is the supervisor session name. Empty with the tmux
	// backend defaults to the conventional session name for the id.
	Handle string

	// Backend is "tmux" or "manual". Empty means tmux.
	Backend string

	// ProjectDir and WorkspaceRelPath locate the worker's default
	// coordination document.
	ProjectDir       string
	WorkspaceRelPath string

	// Skill and ArtifactPath are set together for workers producing a
	// standalone deliverable file.
	Skill        string
	ArtifactPath string

	// Interactive marks a human-directed session.
	Interactive bool

	// Meta carries opaque key=value linkage, e.g. tracker_id=FEAT-12.
	Meta map[string]string
}

// Register records an externally spawned worker in the store and
// prints its id. muster does not spawn the worker; the caller already
// did that.
func Register(ctx context.Context, d Deps, opts RegisterOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()

	if err := core.ValidateTask(opts.Task); err != nil {
		return err
	}
	backend := registry.Backend(opts.Backend)
	if opts.Backend == "" {
		backend = registry.BackendTmux
	}
	if !backend.IsValid() {
		return errors.New(errors.EUsage,
			fmt.Sprintf("unknown backend %q (want tmux or manual)", opts.Backend))
	}
	if backend == registry.BackendManual && opts.Handle != "" {
		return errors.New(errors.EUsage, "--handle is meaningless for the manual backend")
	}
	if (opts.Skill == "") != (opts.ArtifactPath == "") {
		return errors.New(errors.EUsage, "--skill and --artifact must be set together")
	}

	id := opts.ID
	if id == "" {
		id = core.NewAgentID(opts.Task)
	}
	if err := core.ValidateAgentID(id); err != nil {
		return err
	}

	handle := opts.Handle
	if handle == "" && backend == registry.BackendTmux {
		handle = tmux.SessionName(id)
	}

	reg, err := openRegistry(ctx, d)
	if err != nil {
		return err
	}
	rec, err := reg.Register(ctx, registry.AgentRecord{
		ID:                  id,
		Task:                strings.TrimSpace(opts.Task),
		Handle:              handle,
		Backend:             backend,
		ProjectDir:          opts.ProjectDir,
		WorkspaceRelPath:    opts.WorkspaceRelPath,
		Skill:               opts.Skill,
		PrimaryArtifactPath: opts.ArtifactPath,
		Interactive:         opts.Interactive,
		Meta:                opts.Meta,
	})
	if err != nil {
		return err
	}

	appendAgentEvent(d, rec.ID, "agent_registered",
		events.RegisteredData(rec.Task, rec.Handle, string(rec.Backend)))
	_, _ = fmt.Fprintln(stdout, rec.ID)
	return nil
}

// ParseMeta converts repeated key=value flags into a meta map.
func ParseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.EUsage,
				fmt.Sprintf("invalid --meta %q (want key=value)", pair))
		}
		meta[key] = value
	}
	return meta, nil
}
