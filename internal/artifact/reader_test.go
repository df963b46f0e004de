package artifact

import (
	"context"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type stubInfo struct {
	name    string
	modTime time.Time
}

func (i stubInfo) Name() string        { return i.name }
func (i stubInfo) Size() int64         { return 0 }
func (i stubInfo) Mode() iofs.FileMode { return 0644 }
func (i stubInfo) ModTime() time.Time  { return i.modTime }
func (i stubInfo) IsDir() bool         { return false }
func (i stubInfo) Sys() any            { return nil }

// stubArtifactFS serves one artifact with a controllable mtime.
type stubArtifactFS struct {
	content []byte
	modTime func() time.Time
	statErr error
}

func (s *stubArtifactFS) ReadFile(path string) ([]byte, error) {
	if s.statErr != nil {
		return nil, s.statErr
	}
	return s.content, nil
}

func (s *stubArtifactFS) Stat(path string) (iofs.FileInfo, error) {
	if s.statErr != nil {
		return nil, s.statErr
	}
	return stubInfo{name: filepath.Base(path), modTime: s.modTime()}, nil
}

func (s *stubArtifactFS) WriteFile(string, []byte, iofs.FileMode) error { return os.ErrPermission }
func (s *stubArtifactFS) MkdirAll(string, iofs.FileMode) error          { return os.ErrPermission }
func (s *stubArtifactFS) Rename(string, string) error                   { return os.ErrPermission }
func (s *stubArtifactFS) Remove(string) error                           { return os.ErrPermission }
func (s *stubArtifactFS) Chmod(string, iofs.FileMode) error             { return os.ErrPermission }
func (s *stubArtifactFS) CreateTemp(string, string) (string, io.WriteCloser, error) {
	return "", nil, os.ErrPermission
}

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func TestReadSignals_MissingArtifact(t *testing.T) {
	r := NewReader(ReaderOptions{FS: &stubArtifactFS{statErr: os.ErrNotExist}})

	sig, err := r.ReadSignals(context.Background(), "/w1/COORDINATION.md")
	if err != nil {
		t.Fatalf("ReadSignals() error = %v, want nil", err)
	}
	if !sig.Missing {
		t.Error("Missing = false, want true")
	}
}

func TestReadSignals_StableFileReadsImmediately(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	stub := &stubArtifactFS{
		content: []byte("**Phase:** Complete\n"),
		modTime: func() time.Time { return base.Add(-time.Minute) },
	}
	r := NewReader(ReaderOptions{FS: stub, Now: clock.Now, Sleep: clock.Sleep})

	sig, err := r.ReadSignals(context.Background(), "/w1/COORDINATION.md")
	if err != nil {
		t.Fatalf("ReadSignals() error = %v", err)
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v, want no waiting for a stable file", clock.slept)
	}
	if sig.Phase != "Complete" {
		t.Errorf("Phase = %q, want Complete", sig.Phase)
	}
	if !sig.ModTime.Equal(base.Add(-time.Minute)) {
		t.Errorf("ModTime = %v, want the artifact's mtime", sig.ModTime)
	}
}

func TestReadSignals_WaitsForStability(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	stub := &stubArtifactFS{
		content: []byte("Phase: Implementing\n"),
		// Written at base; stable once the window has elapsed.
		modTime: func() time.Time { return base },
	}
	r := NewReader(ReaderOptions{
		FS: stub, Now: clock.Now, Sleep: clock.Sleep,
		StabilityWindow: 500 * time.Millisecond,
		StabilityBudget: 5 * time.Second,
	})

	sig, err := r.ReadSignals(context.Background(), "/w1/COORDINATION.md")
	if err != nil {
		t.Fatalf("ReadSignals() error = %v", err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 500*time.Millisecond {
		t.Errorf("slept %v, want one window-length wait", clock.slept)
	}
	if sig.Phase != "Implementing" {
		t.Errorf("Phase = %q", sig.Phase)
	}
}

func TestReadSignals_BudgetBoundsUnstableFile(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	stub := &stubArtifactFS{
		content: []byte("Phase: Implementing\n"),
		// Always freshly modified: the file never settles.
		modTime: func() time.Time { return clock.now },
	}
	r := NewReader(ReaderOptions{
		FS: stub, Now: clock.Now, Sleep: clock.Sleep,
		StabilityWindow: 500 * time.Millisecond,
		StabilityBudget: 2 * time.Second,
	})

	sig, err := r.ReadSignals(context.Background(), "/w1/COORDINATION.md")
	if err != nil {
		t.Fatalf("ReadSignals() error = %v, want best-effort read", err)
	}
	if sig.Phase != "Implementing" {
		t.Errorf("Phase = %q, want content despite instability", sig.Phase)
	}
	elapsed := clock.now.Sub(base)
	if elapsed > 2*time.Second {
		t.Errorf("waited %v, want at most the budget", elapsed)
	}
	if len(clock.slept) == 0 {
		t.Error("expected at least one wait before giving up")
	}
}

func TestReadSignals_RealFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "COORDINATION.md")
	content := "## Verification Required\n- [ ] manual QA\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	r := NewReader(ReaderOptions{})
	sig, err := r.ReadSignals(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadSignals() error = %v", err)
	}
	if sig.Missing {
		t.Fatal("Missing = true for an existing file")
	}
	if !sig.Verification.Pending() {
		t.Error("Verification.Pending() = false, want true")
	}
}
