package registry

import (
	"context"
	stderrors "errors"

	"github.com/gofrs/flock"

	"github.com/redtail/muster/internal/errors"
)

// LockPath returns the sidecar lock file guarding the store at
// storePath. The lock lives beside the store rather than on it because
// saves replace the store's inode via rename, which would orphan a
// lock held on the old inode.
func LockPath(storePath string) string {
	return storePath + ".lock"
}

func (r *Registry) lockPath() string {
	return LockPath(r.path)
}

// acquireExclusive takes the writer lock, polling until the configured
// timeout. The caller must Unlock the returned flock.
func (r *Registry) acquireExclusive(ctx context.Context) (*flock.Flock, error) {
	fl := flock.New(r.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()
	ok, err := fl.TryLockContext(lockCtx, r.lockPoll)
	return r.checkAcquire(fl, ok, err)
}

// acquireShared takes a reader lock with the same polling bounds.
func (r *Registry) acquireShared(ctx context.Context) (*flock.Flock, error) {
	fl := flock.New(r.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()
	ok, err := fl.TryRLockContext(lockCtx, r.lockPoll)
	return r.checkAcquire(fl, ok, err)
}

func (r *Registry) checkAcquire(fl *flock.Flock, ok bool, err error) (*flock.Flock, error) {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.NewWithDetails(errors.ELockTimeout,
			"timed out waiting for the store lock",
			map[string]string{"store": r.path, "timeout": r.lockTimeout.String()})
	case stderrors.Is(err, context.Canceled):
		return nil, errors.Wrap(errors.EInternal, "interrupted while waiting for the store lock", err)
	case err != nil:
		return nil, errors.WrapWithDetails(errors.EStoreIO, "store lock failed", err,
			map[string]string{"store": r.path})
	case !ok:
		return nil, errors.NewWithDetails(errors.ELockTimeout,
			"store lock is held by another process",
			map[string]string{"store": r.path, "timeout": r.lockTimeout.String()})
	}
	return fl, nil
}
