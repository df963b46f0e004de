// Package registry provides the durable agent store for muster.
// The store is a single JSON file guarded by cross-process file
// locks; every mutation funnels through the locked save/merge path.
// Files are written atomically via temp file + rename.
package registry

import (
	"path/filepath"
	"time"
)

// Status is the lifecycle state of an agent record.
//
// Transitions are monotonic along
// active -> {completed | terminated | abandoned} -> deleted;
// nothing moves a record back to active.
type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
	StatusAbandoned  Status = "abandoned"
	StatusDeleted    Status = "deleted"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusTerminated, StatusAbandoned, StatusDeleted:
		return true
	}
	return false
}

// IsTerminal reports whether s is past active.
func (s Status) IsTerminal() bool {
	return s.IsValid() && s != StatusActive
}

// IsLive reports whether s is the active lifecycle state.
func (s Status) IsLive() bool {
	return s == StatusActive
}

// Backend identifies the worker-hosting mechanism for a record.
type Backend string

const (
	// BackendTmux hosts workers in tmux sessions; handles are session
	// names and reconciliation applies.
	BackendTmux Backend = "tmux"

	// BackendManual is for workers with no live-process concept
	// (a human driving a session by hand). Reconciliation skips them.
	BackendManual Backend = "manual"
)

// IsValid reports whether b is a known backend.
func (b Backend) IsValid() bool {
	return b == BackendTmux || b == BackendManual
}

// Reconcilable reports whether records on this backend participate in
// live-handle reconciliation.
func (b Backend) Reconcilable() bool {
	return b == BackendTmux
}

// AgentRecord is one spawned worker as the store knows it.
type AgentRecord struct {
	// ID is the primary key, unique across the entire record set
	// including tombstones.
	ID string `json:"id"`

	// Task is the free-text description the worker was spawned for.
	Task string `json:"task"`

	// Handle is the supervisor's opaque live-process reference (a tmux
	// session name). Empty for handle-less backends.
	Handle string `json:"handle,omitempty"`

	Backend Backend `json:"backend"`
	Status  Status  `json:"status"`

	// ProjectDir and WorkspaceRelPath scope the worker's default
	// coordination artifact.
	ProjectDir       string `json:"project_dir,omitempty"`
	WorkspaceRelPath string `json:"workspace_rel_path,omitempty"`

	// Skill and PrimaryArtifactPath are set together when the worker
	// produces a standalone deliverable file instead of the default
	// workspace document.
	Skill               string `json:"skill,omitempty"`
	PrimaryArtifactPath string `json:"primary_artifact_path,omitempty"`

	// Interactive marks human-directed sessions; they are never
	// auto-completed.
	Interactive bool `json:"interactive,omitempty"`

	// Reason records why the agent was abandoned.
	Reason string `json:"reason,omitempty"`

	// SpawnedAt is set once at registration. UpdatedAt moves on every
	// mutation and is the merge tie-breaker.
	SpawnedAt time.Time `json:"spawned_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty"`
	AbandonedAt  *time.Time `json:"abandoned_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Meta carries upstream linkage (feature/issue ids) opaquely; the
	// core never interprets it.
	Meta map[string]string `json:"meta,omitempty"`
}

// ArtifactPath resolves the record's coordination artifact:
// PrimaryArtifactPath when set, else the workspace document under
// ProjectDir/WorkspaceRelPath.
func (r AgentRecord) ArtifactPath(workspaceDoc string) string {
	if r.PrimaryArtifactPath != "" {
		return r.PrimaryArtifactPath
	}
	if r.ProjectDir == "" {
		return ""
	}
	return filepath.Join(r.ProjectDir, r.WorkspaceRelPath, workspaceDoc)
}

// StandaloneDeliverable reports whether the record's artifact is a
// specific deliverable file rather than the workspace document.
func (r AgentRecord) StandaloneDeliverable() bool {
	return r.PrimaryArtifactPath != ""
}

// Clone returns a deep copy safe to hand out of the registry.
func (r AgentRecord) Clone() AgentRecord {
	out := r
	out.CompletedAt = cloneTime(r.CompletedAt)
	out.TerminatedAt = cloneTime(r.TerminatedAt)
	out.AbandonedAt = cloneTime(r.AbandonedAt)
	out.DeletedAt = cloneTime(r.DeletedAt)
	if r.Meta != nil {
		out.Meta = make(map[string]string, len(r.Meta))
		for k, v := range r.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// mergeStamp is the timestamp a record competes with during merge:
// updatedAt, falling back to spawnedAt, then the zero time.
func mergeStamp(r AgentRecord) time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.SpawnedAt
}
