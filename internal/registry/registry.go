package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/fs"
	"github.com/redtail/muster/internal/logging"
)

const storeVersion = 1

const (
	DefaultLockTimeout = 10 * time.Second
	DefaultLockPoll    = 50 * time.Millisecond
)

// storeFile is the on-disk JSON envelope.
type storeFile struct {
	Version int           `json:"version"`
	Agents  []AgentRecord `json:"agents"`
}

// Registry holds the in-memory record set and persists it to a single
// JSON store file. It is not safe for concurrent use by goroutines;
// cross-process safety comes from the file locks around Load and Save.
type Registry struct {
	fsys fs.FS
	path string
	now  func() time.Time
	log  *slog.Logger

	lockTimeout time.Duration
	lockPoll    time.Duration

	records map[string]AgentRecord
}

// Options configures a Registry. Zero fields fall back to production
// defaults; Path is required.
type Options struct {
	FS     fs.FS
	Path   string
	Now    func() time.Time
	Logger *slog.Logger

	LockTimeout time.Duration
	LockPoll    time.Duration
}

func New(opts Options) *Registry {
	r := &Registry{
		fsys:        opts.FS,
		path:        opts.Path,
		now:         opts.Now,
		log:         opts.Logger,
		lockTimeout: opts.LockTimeout,
		lockPoll:    opts.LockPoll,
		records:     make(map[string]AgentRecord),
	}
	if r.fsys == nil {
		r.fsys = fs.RealFS{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.lockTimeout <= 0 {
		r.lockTimeout = DefaultLockTimeout
	}
	if r.lockPoll <= 0 {
		r.lockPoll = DefaultLockPoll
	}
	return r
}

// Path returns the store file path.
func (r *Registry) Path() string {
	return r.path
}

// Load reads the store into memory under a shared lock. A missing
// store, an unparseable one, or an unknown version all yield an empty
// record set; Load only fails on lock or IO errors.
func (r *Registry) Load(ctx context.Context) error {
	if _, err := r.fsys.Stat(r.path); err != nil && os.IsNotExist(err) {
		// Nothing on disk yet. Skip locking so a bare read does not
		// create directories or lock files as a side effect.
		r.records = make(map[string]AgentRecord)
		return nil
	}
	fl, err := r.acquireShared(ctx)
	if err != nil {
		if errors.GetCode(err) != errors.ELockTimeout {
			return err
		}
		// Saves replace the store atomically, so an unlocked read still
		// sees a consistent snapshot, at worst a slightly stale one.
		r.log.Warn("reading store without lock", "store", r.path)
	} else {
		defer fl.Unlock()
	}
	r.records = r.readDisk()
	return nil
}

// Save persists the in-memory set under an exclusive lock. Unless
// skipMerge is set it first re-reads the store and merges, so records
// written by other processes since our Load survive. With skipMerge
// the in-memory set is written verbatim; only bulk destructive
// commands use that, so their removals are not undone by the merge.
func (r *Registry) Save(ctx context.Context, skipMerge bool) error {
	if err := r.ensureDir(); err != nil {
		return err
	}
	fl, err := r.acquireExclusive(ctx)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	out := r.records
	if !skipMerge {
		out = Merge(r.readDisk(), r.records)
	}
	if err := r.write(out); err != nil {
		return err
	}
	r.records = out
	return nil
}

// Register adds rec as a new active record and persists the store.
// Registering an id that exists in any non-deleted status is a hard
// error; a tombstoned id may be reused and replaces the tombstone. If
// rec's handle collides with another active record, the colliding
// record is abandoned and persisted before rec is added, so a handle
// maps to at most one active agent.
func (r *Registry) Register(ctx context.Context, rec AgentRecord) (AgentRecord, error) {
	if rec.ID == "" {
		return AgentRecord{}, errors.New(errors.EInvalidID, "agent id is empty")
	}
	if !rec.Backend.IsValid() {
		return AgentRecord{}, errors.NewWithDetails(errors.EInternal,
			fmt.Sprintf("unknown backend %q", rec.Backend),
			map[string]string{"agent_id": rec.ID, "backend": string(rec.Backend)})
	}
	if existing, ok := r.records[rec.ID]; ok && existing.Status != StatusDeleted {
		return AgentRecord{}, errors.NewWithDetails(errors.EDuplicateID,
			fmt.Sprintf("agent %q is already registered with status %s", rec.ID, existing.Status),
			map[string]string{"agent_id": rec.ID, "status": string(existing.Status)})
	}
	if collided, ok := r.activeByHandle(rec.Handle); ok {
		// Handle reuse means the previous holder's session is gone.
		r.stampAbandon(collided.ID, fmt.Sprintf("handle %s reused by %s", rec.Handle, rec.ID))
		if err := r.Save(ctx, false); err != nil {
			return AgentRecord{}, err
		}
		r.log.Info("abandoned agent after handle collision",
			"agent_id", collided.ID, "handle", rec.Handle, "reused_by", rec.ID)
	}
	now := r.now()
	rec.Status = StatusActive
	if rec.SpawnedAt.IsZero() {
		rec.SpawnedAt = now
	}
	rec.UpdatedAt = now
	r.records[rec.ID] = rec
	if err := r.Save(ctx, false); err != nil {
		return AgentRecord{}, err
	}
	return r.records[rec.ID].Clone(), nil
}

// Find returns the record for id, tombstones included.
func (r *Registry) Find(id string) (AgentRecord, bool) {
	rec, ok := r.records[id]
	if !ok {
		return AgentRecord{}, false
	}
	return rec.Clone(), true
}

// FindByHandle returns the active record owning handle.
func (r *Registry) FindByHandle(handle string) (AgentRecord, bool) {
	rec, ok := r.activeByHandle(handle)
	if !ok {
		return AgentRecord{}, false
	}
	return rec.Clone(), true
}

// List returns non-deleted records sorted by spawn time, oldest first,
// id as tie-breaker.
func (r *Registry) List() []AgentRecord {
	return r.list(false)
}

// ListAll is List with tombstones included.
func (r *Registry) ListAll() []AgentRecord {
	return r.list(true)
}

// Active returns the active records in List order.
func (r *Registry) Active() []AgentRecord {
	var out []AgentRecord
	for _, rec := range r.list(false) {
		if rec.Status.IsLive() {
			out = append(out, rec)
		}
	}
	return out
}

// Complete marks an active record completed. The caller must Save.
func (r *Registry) Complete(id string) (AgentRecord, error) {
	return r.finish(id, StatusCompleted)
}

// Terminate marks an active record terminated. The caller must Save.
func (r *Registry) Terminate(id string) (AgentRecord, error) {
	return r.finish(id, StatusTerminated)
}

// Abandon marks an active record abandoned with a reason. The caller
// must Save.
func (r *Registry) Abandon(id, reason string) (AgentRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return AgentRecord{}, notFound(id)
	}
	if !rec.Status.IsLive() {
		return AgentRecord{}, notActive(id, rec.Status)
	}
	r.stampAbandon(id, reason)
	return r.records[id].Clone(), nil
}

// Remove tombstones a record. Tombstones stay in the store so their
// ids cannot come back through a merge. Removing a tombstone is a
// no-op. The caller must Save.
func (r *Registry) Remove(id string) (AgentRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return AgentRecord{}, notFound(id)
	}
	if rec.Status == StatusDeleted {
		return rec.Clone(), nil
	}
	now := r.now()
	rec.Status = StatusDeleted
	rec.DeletedAt = &now
	rec.UpdatedAt = now
	r.records[id] = rec
	return rec.Clone(), nil
}

func (r *Registry) finish(id string, to Status) (AgentRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return AgentRecord{}, notFound(id)
	}
	if !rec.Status.IsLive() {
		return AgentRecord{}, notActive(id, rec.Status)
	}
	now := r.now()
	rec.Status = to
	rec.UpdatedAt = now
	switch to {
	case StatusCompleted:
		rec.CompletedAt = &now
	case StatusTerminated:
		rec.TerminatedAt = &now
	}
	r.records[id] = rec
	return rec.Clone(), nil
}

func (r *Registry) stampAbandon(id, reason string) {
	rec := r.records[id]
	now := r.now()
	rec.Status = StatusAbandoned
	rec.AbandonedAt = &now
	rec.UpdatedAt = now
	rec.Reason = reason
	r.records[id] = rec
}

func (r *Registry) activeByHandle(handle string) (AgentRecord, bool) {
	if handle == "" {
		return AgentRecord{}, false
	}
	for _, rec := range r.records {
		if rec.Status.IsLive() && rec.Handle == handle {
			return rec, true
		}
	}
	return AgentRecord{}, false
}

func (r *Registry) list(includeDeleted bool) []AgentRecord {
	out := make([]AgentRecord, 0, len(r.records))
	for _, rec := range r.records {
		if !includeDeleted && rec.Status == StatusDeleted {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SpawnedAt.Equal(out[j].SpawnedAt) {
			return out[i].SpawnedAt.Before(out[j].SpawnedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// readDisk parses the store file. Missing files, unparseable content,
// and unknown versions all yield an empty set rather than an error, so
// a damaged store never blocks commands; the next Save rewrites it.
func (r *Registry) readDisk() map[string]AgentRecord {
	out := make(map[string]AgentRecord)
	data, err := r.fsys.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("store unreadable, treating as empty", "store", r.path, "error", err.Error())
		}
		return out
	}
	var sf storeFile
	if err := json.Unmarshal(data, &sf); err != nil {
		r.log.Warn("store unparseable, treating as empty", "store", r.path, "error", err.Error())
		return out
	}
	if sf.Version != 0 && sf.Version != storeVersion {
		r.log.Warn("store version unsupported, treating as empty", "store", r.path, "version", sf.Version)
		return out
	}
	for _, rec := range sf.Agents {
		if rec.ID == "" {
			r.log.Warn("dropping store record without id", "store", r.path)
			continue
		}
		out[rec.ID] = rec
	}
	return out
}

func (r *Registry) write(records map[string]AgentRecord) error {
	sf := storeFile{Version: storeVersion, Agents: diskOrder(records)}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return errors.Wrap(errors.EInternal, "could not encode store", err)
	}
	data = append(data, '\n')
	if err := fs.WriteFileAtomic(r.fsys, r.path, data, 0o644); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "could not write store", err,
			map[string]string{"store": r.path})
	}
	return nil
}

func (r *Registry) ensureDir() error {
	if err := r.fsys.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return errors.WrapWithDetails(errors.EPersistFailed, "could not create store directory", err,
			map[string]string{"store": r.path})
	}
	return nil
}

// diskOrder sorts by id so saves are deterministic and store diffs
// stay readable.
func diskOrder(records map[string]AgentRecord) []AgentRecord {
	out := make([]AgentRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func notFound(id string) error {
	return errors.NewWithDetails(errors.EAgentNotFound,
		fmt.Sprintf("no agent %q in the store", id),
		map[string]string{"agent_id": id})
}

func notActive(id string, status Status) error {
	return errors.NewWithDetails(errors.EAgentNotActive,
		fmt.Sprintf("agent %q is %s, not active", id, status),
		map[string]string{"agent_id": id, "status": string(status)})
}
