package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/redtail/muster/internal/registry"
)

// ShowData holds the display-ready fields for the show detail view.
type ShowData struct {
	ID          string
	Task        string
	Backend     string
	Status      string
	Reason      string
	Handle      string
	HandleState string // "live", "gone", or "" when not checked
	ProjectDir  string
	Workspace   string
	Artifact    string
	Skill       string
	Interactive bool

	Spawned   string
	Updated   string
	Completed string
	Terminated string
	Abandoned string
	Deleted   string

	Meta map[string]string

	// Tail is captured session output; TailSession names its source.
	Tail        string
	TailSession string
}

// ShowDataFrom seeds a ShowData from a record. The caller fills the
// fields that need live lookups (HandleState, Tail).
func ShowDataFrom(rec registry.AgentRecord, workspaceDoc string) ShowData {
	return ShowData{
		ID:          rec.ID,
		Task:        rec.Task,
		Backend:     string(rec.Backend),
		Status:      string(rec.Status),
		Reason:      rec.Reason,
		Handle:      rec.Handle,
		ProjectDir:  rec.ProjectDir,
		Workspace:   rec.WorkspaceRelPath,
		Artifact:    rec.ArtifactPath(workspaceDoc),
		Skill:       rec.Skill,
		Interactive: rec.Interactive,
		Spawned:     stamp(rec.SpawnedAt),
		Updated:     stamp(rec.UpdatedAt),
		Completed:   stampPtr(rec.CompletedAt),
		Terminated:  stampPtr(rec.TerminatedAt),
		Abandoned:   stampPtr(rec.AbandonedAt),
		Deleted:     stampPtr(rec.DeletedAt),
		Meta:        rec.Meta,
	}
}

// WriteShow writes the detail view as plain key/value lines in fixed
// order.
func WriteShow(w io.Writer, data ShowData) error {
	task := data.Task
	if task == "" {
		task = "<untitled>"
	}
	handle := orNone(data.Handle)
	if data.Handle != "" && data.HandleState != "" {
		handle = fmt.Sprintf("%s (%s)", data.Handle, data.HandleState)
	}
	interactive := "no"
	if data.Interactive {
		interactive = "yes"
	}

	_, _ = fmt.Fprintf(w, "agent: %s\n", data.ID)
	_, _ = fmt.Fprintf(w, "task: %s\n", task)
	_, _ = fmt.Fprintf(w, "backend: %s\n", data.Backend)
	_, _ = fmt.Fprintf(w, "status: %s\n", data.Status)
	if data.Reason != "" {
		_, _ = fmt.Fprintf(w, "reason: %s\n", data.Reason)
	}
	_, _ = fmt.Fprintf(w, "handle: %s\n", handle)
	_, _ = fmt.Fprintf(w, "project_dir: %s\n", orNone(data.ProjectDir))
	_, _ = fmt.Fprintf(w, "workspace: %s\n", orNone(data.Workspace))
	_, _ = fmt.Fprintf(w, "artifact: %s\n", orNone(data.Artifact))
	_, _ = fmt.Fprintf(w, "skill: %s\n", orNone(data.Skill))
	_, _ = fmt.Fprintf(w, "interactive: %s\n", interactive)
	_, _ = fmt.Fprintf(w, "spawned: %s\n", orNone(data.Spawned))
	_, _ = fmt.Fprintf(w, "updated: %s\n", orNone(data.Updated))
	if data.Completed != "" {
		_, _ = fmt.Fprintf(w, "completed: %s\n", data.Completed)
	}
	if data.Terminated != "" {
		_, _ = fmt.Fprintf(w, "terminated: %s\n", data.Terminated)
	}
	if data.Abandoned != "" {
		_, _ = fmt.Fprintf(w, "abandoned: %s\n", data.Abandoned)
	}
	if data.Deleted != "" {
		_, _ = fmt.Fprintf(w, "deleted: %s\n", data.Deleted)
	}

	if len(data.Meta) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "meta:")
		keys := make([]string, 0, len(data.Meta))
		for k := range data.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", k, data.Meta[k])
		}
	}

	if data.Tail != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "tail (%s):\n", data.TailSession)
		for _, line := range strings.Split(data.Tail, "\n") {
			_, _ = fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func stampPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return stamp(*t)
}
