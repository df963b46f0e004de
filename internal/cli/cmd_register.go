package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/redtail/muster/internal/commands"
)

func newRegisterCmd() *cobra.Command {
	var (
		id               string
		handle           string
		backend          string
		projectDir       string
		workspaceRelPath string
		skill            string
		artifactPath     string
		interactive      bool
		metaPairs        []string
	)

	cmd := &cobra.Command{
		Use:   "register <task>",
		Short: "Record an externally spawned worker in the registry",
		Long: `Record an externally spawned worker in the registry and print its id.
Muster does not spawn the worker; the caller already did that.

Arguments:
  task    short description of the work (required)

Notes:
  - without --id, an id is minted from the task description
  - the tmux backend defaults --handle to the conventional session name
  - --skill and --artifact mark a worker producing a standalone
    deliverable file; they must be set together
  - --meta attaches key=value linkage, e.g. --meta tracker_id=FEAT-12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			stderr := cmd.ErrOrStderr()

			meta, err := commands.ParseMeta(metaPairs)
			if err != nil {
				return err
			}

			d, closer, err := newDeps()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			opts := commands.RegisterOpts{
				ID:               id,
				Task:             args[0],
				Handle:           handle,
				Backend:          backend,
				ProjectDir:       projectDir,
				WorkspaceRelPath: workspaceRelPath,
				Skill:            skill,
				ArtifactPath:     artifactPath,
				Interactive:      interactive,
				Meta:             meta,
			}

			return commands.Register(context.Background(), d, opts, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "agent id (default: minted from the task)")
	cmd.Flags().StringVar(&handle, "handle", "", "tmux session name (default: derived from the id)")
	cmd.Flags().StringVar(&backend, "backend", "", "worker backend: tmux or manual (default: tmux)")
	cmd.Flags().StringVar(&projectDir, "project-dir", "", "project directory the worker operates in")
	cmd.Flags().StringVar(&workspaceRelPath, "workspace", "", "coordination document path relative to the project dir")
	cmd.Flags().StringVar(&skill, "skill", "", "skill producing a standalone deliverable")
	cmd.Flags().StringVar(&artifactPath, "artifact", "", "absolute path of the standalone deliverable")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "mark a human-directed session")
	cmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "opaque key=value metadata (repeatable)")

	return cmd
}
