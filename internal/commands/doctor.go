package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"github.com/redtail/muster/internal/exec"
	"github.com/redtail/muster/internal/logging"
	"github.com/redtail/muster/internal/registry"
)

// DoctorReport holds all the data for doctor output.
type DoctorReport struct {
	ConfigPath   string
	Config       string
	DataDir      string
	DataDirState string
	StorePath    string
	Store        string
	StoreLock    string
	EventsPath   string
	Events       string
	Tmux         string
	Oracle       string
	LogFile      string

	// Degraded is set when something below needs operator attention.
	Degraded bool
}

// Doctor reports on muster's environment: config, data dir, store
// health, lock availability, tmux, and the phase oracle. It always
// exits zero; problems show up in the report, not the exit code.
func Doctor(ctx context.Context, d Deps, stdout, stderr io.Writer) error {
	d = d.withDefaults()
	cfg := d.Config

	report := DoctorReport{
		ConfigPath: d.ConfigPath,
		DataDir:    cfg.DataDir,
		StorePath:  cfg.StorePath(),
		EventsPath: cfg.EventsPath(),
	}

	report.Config = "ok"
	if !d.ConfigFound {
		report.Config = "missing (defaults in effect)"
	}

	report.DataDirState = "ok"
	dataDirExists := true
	if _, err := d.FS.Stat(cfg.DataDir); err != nil {
		report.DataDirState = "missing"
		dataDirExists = false
	}

	report.Store = checkStore(d, cfg.StorePath(), &report.Degraded)
	report.StoreLock = checkStoreLock(cfg.StorePath(), dataDirExists)

	report.Events = "ok"
	if _, err := d.FS.Stat(cfg.EventsPath()); err != nil {
		report.Events = "missing"
	}

	report.Tmux = checkTmuxInstall(ctx, d, &report.Degraded)
	report.Oracle = checkOracle(d, &report.Degraded)

	report.LogFile = cfg.Log.File
	if report.LogFile == "" {
		report.LogFile = logging.FileFor(cfg.DataDir)
	}

	writeDoctorOutput(stdout, report)
	return nil
}

// checkStore reads the store envelope directly so a damaged file is
// reported instead of silently treated as empty the way Load does.
func checkStore(d Deps, storePath string, degraded *bool) string {
	data, err := d.FS.ReadFile(storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "missing"
		}
		*degraded = true
		return "unreadable: " + err.Error()
	}
	var envelope struct {
		Agents []struct {
			Status string `json:"status"`
		} `json:"agents"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		*degraded = true
		return "unparseable (treated as empty)"
	}
	tombstones := 0
	for _, a := range envelope.Agents {
		if a.Status == string(registry.StatusDeleted) {
			tombstones++
		}
	}
	return fmt.Sprintf("ok (agents: %d, tombstones: %d)", len(envelope.Agents), tombstones)
}

// checkStoreLock probes the store lock without waiting. A held lock is
// normal while another muster runs; it is reported, not treated as
// degraded.
func checkStoreLock(storePath string, dataDirExists bool) string {
	if !dataDirExists {
		return "-"
	}
	fl := flock.New(registry.LockPath(storePath))
	ok, err := fl.TryLock()
	if err != nil || !ok {
		return "held"
	}
	_ = fl.Unlock()
	return "acquirable"
}

// checkTmuxInstall verifies tmux is installed and returns its version.
func checkTmuxInstall(ctx context.Context, d Deps, degraded *bool) string {
	result, err := d.Runner.Run(ctx, d.Config.Tmux.Bin, []string{"-V"}, exec.RunOpts{})
	if err != nil || result.ExitCode != 0 {
		*degraded = true
		return "not installed"
	}
	return strings.TrimSpace(result.Stdout)
}

// checkOracle reports whether the configured phase oracle command is
// resolvable.
func checkOracle(d Deps, degraded *bool) string {
	cmd := d.Config.Oracle.Cmd
	if cmd == "" {
		return "disabled"
	}
	if _, err := d.Runner.LookPath(cmd); err != nil {
		*degraded = true
		return fmt.Sprintf("%s (not on PATH)", cmd)
	}
	return fmt.Sprintf("%s (on PATH)", cmd)
}

// writeDoctorOutput writes the stable key: value output. Writes ignore
// errors; this is informational output with nothing to recover.
func writeDoctorOutput(w io.Writer, r DoctorReport) {
	_, _ = fmt.Fprintf(w, "config_path: %s\n", r.ConfigPath)
	_, _ = fmt.Fprintf(w, "config: %s\n", r.Config)
	_, _ = fmt.Fprintf(w, "data_dir: %s\n", r.DataDir)
	_, _ = fmt.Fprintf(w, "data_dir_state: %s\n", r.DataDirState)
	_, _ = fmt.Fprintf(w, "store_path: %s\n", r.StorePath)
	_, _ = fmt.Fprintf(w, "store: %s\n", r.Store)
	_, _ = fmt.Fprintf(w, "store_lock: %s\n", r.StoreLock)
	_, _ = fmt.Fprintf(w, "events_path: %s\n", r.EventsPath)
	_, _ = fmt.Fprintf(w, "events: %s\n", r.Events)
	_, _ = fmt.Fprintf(w, "tmux: %s\n", r.Tmux)
	_, _ = fmt.Fprintf(w, "oracle: %s\n", r.Oracle)
	_, _ = fmt.Fprintf(w, "log_file: %s\n", r.LogFile)

	status := "ok"
	if r.Degraded {
		status = "degraded"
	}
	_, _ = fmt.Fprintf(w, "status: %s\n", status)
}
