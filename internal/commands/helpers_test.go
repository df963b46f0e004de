package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redtail/muster/internal/config"
	"github.com/redtail/muster/internal/exec"
	"github.com/redtail/muster/internal/fs"
	"github.com/redtail/muster/internal/logging"
	"github.com/redtail/muster/internal/registry"
)

// fakeTmuxClient scripts tmux responses and records calls.
type fakeTmuxClient struct {
	sessions         []string
	listSessionsErr  error
	hasSessionResult bool
	hasSessionErr    error
	killSessionErr   error
	captureResult    string
	captureErr       error

	// Track calls
	hasSessionCalls []string
	killCalls       []string
	captureCalls    []captureCall
}

type captureCall struct {
	Name  string
	Lines int
}

func (f *fakeTmuxClient) ListSessions(ctx context.Context) ([]string, error) {
	if f.listSessionsErr != nil {
		return nil, f.listSessionsErr
	}
	return f.sessions, nil
}

func (f *fakeTmuxClient) HasSession(ctx context.Context, name string) (bool, error) {
	f.hasSessionCalls = append(f.hasSessionCalls, name)
	return f.hasSessionResult, f.hasSessionErr
}

func (f *fakeTmuxClient) KillSession(ctx context.Context, name string) error {
	f.killCalls = append(f.killCalls, name)
	return f.killSessionErr
}

func (f *fakeTmuxClient) CapturePane(ctx context.Context, name string, lines int) (string, error) {
	f.captureCalls = append(f.captureCalls, captureCall{Name: name, Lines: lines})
	if f.captureErr != nil {
		return "", f.captureErr
	}
	return f.captureResult, nil
}

// fakeCommandRunner scripts process responses keyed by "name arg arg".
type fakeCommandRunner struct {
	responses map[string]fakeResponse
	missing   map[string]bool // binaries LookPath should not find
	calls     []string
}

type fakeResponse struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

func (f *fakeCommandRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if resp, ok := f.responses[key]; ok {
		if resp.err != nil {
			return exec.CmdResult{}, resp.err
		}
		return exec.CmdResult{
			Stdout:   resp.stdout,
			Stderr:   resp.stderr,
			ExitCode: resp.exitCode,
		}, nil
	}
	return exec.CmdResult{}, fmt.Errorf("no scripted response for %q", key)
}

func (f *fakeCommandRunner) LookPath(file string) (string, error) {
	if f.missing[file] {
		return "", fmt.Errorf("%s: executable file not found in $PATH", file)
	}
	return "/usr/bin/" + file, nil
}

// newTestDeps builds Deps rooted in a temp dir with a scripted tmux
// client and runner. The data dir exists; the store does not yet.
func newTestDeps(t *testing.T) (Deps, *fakeTmuxClient) {
	t.Helper()
	tempDir := t.TempDir()
	cfg := config.Default(tempDir)
	cfg.DataDir = filepath.Join(tempDir, "data")
	// Tight stability bounds so reads never sit in the settle wait.
	cfg.Artifact.StabilityWindow = config.Duration(time.Millisecond)
	cfg.Artifact.StabilityBudget = config.Duration(5 * time.Millisecond)

	fake := &fakeTmuxClient{}
	d := Deps{
		Config:      cfg,
		ConfigPath:  filepath.Join(tempDir, "config", "config.yaml"),
		ConfigFound: true,
		FS:          fs.NewRealFS(),
		Runner:      &fakeCommandRunner{responses: map[string]fakeResponse{}},
		Tmux:        fake,
		Log:         logging.Discard(),
		Now:         time.Now,
	}
	if err := d.FS.MkdirAll(cfg.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return d, fake
}

// registerAgent seeds one record through the real registry, which
// persists it immediately.
func registerAgent(t *testing.T, d Deps, rec registry.AgentRecord) registry.AgentRecord {
	t.Helper()
	reg, err := openRegistry(context.Background(), d)
	if err != nil {
		t.Fatalf("openRegistry() error = %v, want nil", err)
	}
	out, err := reg.Register(context.Background(), rec)
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	return out
}

// loadRecord reads one record back through a fresh registry, so
// assertions see what actually hit the disk.
func loadRecord(t *testing.T, d Deps, id string) registry.AgentRecord {
	t.Helper()
	reg, err := openRegistry(context.Background(), d)
	if err != nil {
		t.Fatalf("openRegistry() error = %v, want nil", err)
	}
	rec, ok := reg.Find(id)
	if !ok {
		t.Fatalf("record %q not found after reload", id)
	}
	return rec
}

// writeArtifact writes a coordination document where the record's
// ProjectDir and WorkspaceRelPath point, backdated past the stability
// window so reads never wait.
func writeArtifact(t *testing.T, d Deps, rec registry.AgentRecord, content string) string {
	t.Helper()
	return writeArtifactAged(t, d, rec, content, time.Minute)
}

// writeArtifactAged writes the artifact and backdates its mtime by age.
func writeArtifactAged(t *testing.T, d Deps, rec registry.AgentRecord, content string, age time.Duration) string {
	t.Helper()
	path := rec.ArtifactPath(d.Config.WorkspaceDoc)
	if path == "" {
		t.Fatal("record resolves no artifact path")
	}
	if err := d.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := d.FS.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	return path
}
