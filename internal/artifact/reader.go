package artifact

import (
	"context"
	iofs "io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/redtail/muster/internal/fs"
	"github.com/redtail/muster/internal/logging"
)

const (
	DefaultStabilityWindow = 500 * time.Millisecond
	DefaultStabilityBudget = 5 * time.Second
)

// Reader reads coordination artifacts from disk.
type Reader struct {
	fsys  fs.FS
	now   func() time.Time
	sleep func(time.Duration)
	log   *slog.Logger

	window time.Duration
	budget time.Duration
}

// ReaderOptions configures a Reader. Zero fields fall back to
// production defaults.
type ReaderOptions struct {
	FS     fs.FS
	Now    func() time.Time
	Sleep  func(time.Duration)
	Logger *slog.Logger

	StabilityWindow time.Duration
	StabilityBudget time.Duration
}

func NewReader(opts ReaderOptions) *Reader {
	r := &Reader{
		fsys:   opts.FS,
		now:    opts.Now,
		sleep:  opts.Sleep,
		log:    opts.Logger,
		window: opts.StabilityWindow,
		budget: opts.StabilityBudget,
	}
	if r.fsys == nil {
		r.fsys = fs.RealFS{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.sleep == nil {
		r.sleep = time.Sleep
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.window <= 0 {
		r.window = DefaultStabilityWindow
	}
	if r.budget < r.window {
		r.budget = DefaultStabilityBudget
	}
	return r
}

// ReadSignals reads and parses the artifact at path.
//
// A missing file yields Signals{Missing: true} and no error; missing
// is a classification input, not a failure. A file modified within the
// stability window is polled until it settles or the budget runs out,
// then read anyway. The read itself takes a best-effort shared lock;
// the worker owns the file and muster never writes to it.
func (r *Reader) ReadSignals(ctx context.Context, path string) (Signals, error) {
	info, err := r.awaitStable(ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Signals{Missing: true}, nil
		}
		return Signals{}, err
	}

	fl := flock.New(path)
	if ok, lockErr := fl.TryRLock(); lockErr == nil && ok {
		defer fl.Unlock()
	} else {
		r.log.Debug("reading artifact without lock", "path", path)
	}

	data, err := r.fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Deleted between stat and read.
			return Signals{Missing: true}, nil
		}
		return Signals{}, err
	}

	sig := Extract(string(data))
	sig.ModTime = info.ModTime()
	return sig, nil
}

// awaitStable polls until the artifact's mtime is at least the
// stability window old or the budget is exhausted, whichever comes
// first.
func (r *Reader) awaitStable(ctx context.Context, path string) (iofs.FileInfo, error) {
	deadline := r.now().Add(r.budget)
	for {
		info, err := r.fsys.Stat(path)
		if err != nil {
			return nil, err
		}
		age := r.now().Sub(info.ModTime())
		if age >= r.window {
			return info, nil
		}
		if !r.now().Before(deadline) {
			r.log.Debug("artifact still changing, reading anyway", "path", path, "age", age.String())
			return info, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wait := r.window - age
		if remaining := deadline.Sub(r.now()); wait > remaining {
			wait = remaining
		}
		r.sleep(wait)
	}
}
