// Shell tab completion for bash and zsh.

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/registry"
)

// CompletionOpts holds options for the completion command.
type CompletionOpts struct {
	Shell  string // "bash" or "zsh"
	Output string // optional output file path; if empty, writes to stdout
}

// Completion generates shell completion scripts.
// If opts.Output is set, writes the script to that file (creating
// parent dirs); otherwise prints to stdout.
func Completion(_ context.Context, opts CompletionOpts, stdout, stderr io.Writer) error {
	var script string
	switch opts.Shell {
	case "bash":
		script = bashCompletionScript
	case "zsh":
		script = zshCompletionScript
	default:
		return errors.New(errors.EUsage, fmt.Sprintf("unsupported shell: %s (supported: bash, zsh)", opts.Shell))
	}

	if opts.Output == "" {
		_, _ = fmt.Fprint(stdout, script)
		return nil
	}

	dir := filepath.Dir(opts.Output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.EInternal, fmt.Sprintf("failed to create directory %s", dir), err)
	}

	// Temp file + rename so a concurrent shell never sources a
	// half-written script.
	tmpPath := opts.Output + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(script), 0644); err != nil {
		return errors.Wrap(errors.EInternal, fmt.Sprintf("failed to write %s", opts.Output), err)
	}
	if err := os.Rename(tmpPath, opts.Output); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(errors.EInternal, fmt.Sprintf("failed to rename to %s", opts.Output), err)
	}
	return nil
}

// CompleteKind is the type of completion to generate.
type CompleteKind string

const (
	CompleteKindCommands CompleteKind = "commands"
	CompleteKindAgents   CompleteKind = "agents"
	CompleteKindBackends CompleteKind = "backends"
)

// CompleteOpts holds options for the __complete command.
type CompleteOpts struct {
	Kind CompleteKind

	// All includes finished agents, not just active ones.
	All bool
}

// Complete generates completion candidates for shell scripts.
// Outputs newline-separated candidates. Silent on error: a broken
// store or config must never spray errors into a tab press.
// This is a hidden command used by completion scripts.
func Complete(ctx context.Context, d Deps, opts CompleteOpts, stdout, stderr io.Writer) error {
	debug := os.Getenv("MUSTER_DEBUG_COMPLETION") == "1"

	candidates, err := completionCandidates(ctx, d, opts)
	if err != nil {
		if debug {
			_, _ = fmt.Fprintf(stderr, "completion error: %v\n", err)
			return err
		}
		return nil
	}

	for _, c := range candidates {
		_, _ = fmt.Fprintln(stdout, c)
	}
	return nil
}

func completionCandidates(ctx context.Context, d Deps, opts CompleteOpts) ([]string, error) {
	switch opts.Kind {
	case CompleteKindCommands:
		return completeCommands(), nil
	case CompleteKindAgents:
		return completeAgents(ctx, d, opts.All)
	case CompleteKindBackends:
		return []string{"tmux", "manual"}, nil
	default:
		return nil, fmt.Errorf("unknown completion kind: %s", opts.Kind)
	}
}

// completeCommands returns the static list of user-facing top-level
// commands. Excludes hidden/internal commands like __complete.
func completeCommands() []string {
	return []string{
		"abandon",
		"check",
		"completion",
		"doctor",
		"init",
		"ls",
		"reconcile",
		"register",
		"rm",
		"show",
		"version",
	}
}

// completeAgents returns agent ids from the registry. List order is
// already deterministic, so candidates come out stable across presses.
func completeAgents(ctx context.Context, d Deps, all bool) ([]string, error) {
	d = d.withDefaults()
	reg, err := openRegistry(ctx, d)
	if err != nil {
		return nil, err
	}
	var recs []registry.AgentRecord
	if all {
		recs = reg.List()
	} else {
		recs = reg.Active()
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// Bash completion script with install instructions as comments.
const bashCompletionScript = `# muster bash completion
#
# Installation (choose one):
#
# Option 1: Using bash-completion package (recommended)
#   muster completion bash > ~/.local/share/bash-completion/completions/muster
#   # Requires: bash-completion package installed
#   # The directory is auto-sourced by bash-completion
#
# Option 2: Manual sourcing
#   muster completion bash > ~/.muster-completion.bash
#   echo 'source ~/.muster-completion.bash' >> ~/.bashrc
#
# After installation, restart your shell or run:
#   source ~/.bashrc

_muster() {
    local cur prev words cword
    _init_completion 2>/dev/null || {
        COMPREPLY=()
        cur="${COMP_WORDS[COMP_CWORD]}"
        prev="${COMP_WORDS[COMP_CWORD-1]}"
        words=("${COMP_WORDS[@]}")
        cword=$COMP_CWORD
    }

    # Find the subcommand (first non-flag argument after 'muster')
    local cmd=""
    local i
    for ((i=1; i < cword; i++)); do
        case "${words[i]}" in
            --*) ;;
            -*)  ;;
            *)
                cmd="${words[i]}"
                break
                ;;
        esac
    done

    # No subcommand yet - complete commands
    if [[ -z "$cmd" ]]; then
        if [[ "$cur" == -* ]]; then
            COMPREPLY=($(compgen -W "--verbose --help --version" -- "$cur"))
        else
            local commands
            commands=$(muster __complete commands 2>/dev/null)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        fi
        return
    fi

    # Subcommand-specific completion
    case "$cmd" in
        abandon|check)
            # Active agents only
            if [[ "$cur" != -* ]]; then
                COMPREPLY=($(compgen -W "$(muster __complete agents 2>/dev/null)" -- "$cur"))
            fi
            ;;
        rm|show)
            # Finished agents are valid targets too
            if [[ "$cur" != -* ]]; then
                COMPREPLY=($(compgen -W "$(muster __complete agents --all 2>/dev/null)" -- "$cur"))
            fi
            ;;
        register)
            if [[ "$prev" == "--backend" ]]; then
                COMPREPLY=($(compgen -W "$(muster __complete backends 2>/dev/null)" -- "$cur"))
            fi
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh" -- "$cur"))
            ;;
    esac
}

complete -F _muster muster
`

// Zsh completion script with install instructions as comments.
const zshCompletionScript = `#compdef muster
# muster zsh completion
#
# Installation (choose one):
#
# Option 1: Using fpath (recommended)
#   muster completion zsh > ~/.zsh/completions/_muster
#   # Ensure ~/.zsh/completions is in your fpath (add to .zshrc before compinit):
#   #   fpath=(~/.zsh/completions $fpath)
#   # Then run compinit:
#   #   autoload -Uz compinit && compinit
#
# Option 2: Manual sourcing
#   muster completion zsh > ~/.muster-completion.zsh
#   echo 'source ~/.muster-completion.zsh' >> ~/.zshrc
#
# After installation, restart your shell or run:
#   source ~/.zshrc

_muster() {
    local -a commands
    local -a agents

    commands=(${(f)"$(muster __complete commands 2>/dev/null)"})

    case "$words[2]" in
        abandon|check)
            if [[ "$words[CURRENT]" != -* ]]; then
                agents=(${(f)"$(muster __complete agents 2>/dev/null)"})
                _describe 'agent' agents
            fi
            ;;
        rm|show)
            if [[ "$words[CURRENT]" != -* ]]; then
                agents=(${(f)"$(muster __complete agents --all 2>/dev/null)"})
                _describe 'agent' agents
            fi
            ;;
        register)
            case "$words[CURRENT-1]" in
                --backend)
                    _describe 'backend' '(tmux manual)'
                    ;;
            esac
            ;;
        completion)
            _describe 'shell' '(bash zsh)'
            ;;
        "")
            if [[ "$words[CURRENT]" == -* ]]; then
                _arguments \
                    '--verbose[show detailed error context]' \
                    '--help[show help]' \
                    '--version[show version]'
            else
                _describe 'command' commands
            fi
            ;;
        *)
            _describe 'command' commands
            ;;
    esac
}

_muster "$@"
`
