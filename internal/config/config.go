// Package config handles loading and validation of the muster
// configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/fs"
)

// Duration wraps time.Duration for YAML decoding of strings like "10s".
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\"")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config models config.yaml.
type Config struct {
	// DataDir is the muster state root: agents.json, events.jsonl, logs.
	DataDir string `yaml:"data_dir"`

	// WorkspaceDoc is the default coordination artifact filename under a
	// worker's workspace directory.
	WorkspaceDoc string `yaml:"workspace_doc"`

	Locking  Locking  `yaml:"locking"`
	Artifact Artifact `yaml:"artifact"`
	Oracle   Oracle   `yaml:"oracle"`
	Tmux     Tmux     `yaml:"tmux"`
	Log      Log      `yaml:"log"`
}

// Locking bounds exclusive store-lock acquisition.
type Locking struct {
	Timeout      Duration `yaml:"timeout"`
	PollInterval Duration `yaml:"poll_interval"`
}

// Artifact bounds the coordination-artifact stability wait and the
// staleness judgement.
type Artifact struct {
	StabilityWindow Duration `yaml:"stability_window"`
	StabilityBudget Duration `yaml:"stability_budget"`

	// StallThreshold is the artifact age after which check flags an
	// active worker as possibly stalled. Zero disables the check.
	StallThreshold Duration `yaml:"stall_threshold"`
}

// Oracle configures the optional tracker-CLI phase lookup.
// Empty Cmd disables the oracle.
type Oracle struct {
	Cmd  string   `yaml:"cmd"`
	Args []string `yaml:"args"`
}

// Tmux configures the session supervisor.
type Tmux struct {
	Bin string `yaml:"bin"`
}

// Log configures the structured logger.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns built-in defaults rooted under homeDir.
func Default(homeDir string) Config {
	return Config{
		DataDir:      filepath.Join(homeDir, ".local", "share", "muster"),
		WorkspaceDoc: "COORDINATION.md",
		Locking: Locking{
			Timeout:      Duration(10 * time.Second),
			PollInterval: Duration(50 * time.Millisecond),
		},
		Artifact: Artifact{
			StabilityWindow: Duration(500 * time.Millisecond),
			StabilityBudget: Duration(5 * time.Second),
			StallThreshold:  Duration(15 * time.Minute),
		},
		Tmux: Tmux{Bin: "tmux"},
		Log:  Log{Level: "info"},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, ".config", "muster", "config.yaml")
}

// Load reads and validates the config at path. Missing file returns
// defaults with found=false. An existing but invalid file returns
// E_INVALID_CONFIG; defaults fill any omitted fields.
func Load(fsys fs.FS, path, homeDir string) (Config, bool, error) {
	cfg := Default(homeDir)

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return Config{}, false, errors.Wrap(errors.EInvalidConfig, "failed to read config", err)
	}

	// An empty file means "all defaults"; yaml.Decoder would report EOF.
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, true, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, false, errors.WrapWithDetails(
			errors.EInvalidConfig,
			"invalid config yaml: "+err.Error(),
			err,
			map[string]string{"path": path},
		)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, false, err
	}
	return cfg, true, nil
}

// Validate ensures the config meets required structure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New(errors.EInvalidConfig, "data_dir must not be empty")
	}
	if c.WorkspaceDoc == "" {
		return errors.New(errors.EInvalidConfig, "workspace_doc must not be empty")
	}
	if strings.ContainsRune(c.WorkspaceDoc, os.PathSeparator) {
		return errors.New(errors.EInvalidConfig, "workspace_doc must be a bare filename, not a path")
	}
	if c.Locking.Timeout.Std() <= 0 {
		return errors.New(errors.EInvalidConfig, "locking.timeout must be positive")
	}
	if c.Locking.PollInterval.Std() <= 0 {
		return errors.New(errors.EInvalidConfig, "locking.poll_interval must be positive")
	}
	if c.Locking.PollInterval.Std() >= c.Locking.Timeout.Std() {
		return errors.New(errors.EInvalidConfig, "locking.poll_interval must be shorter than locking.timeout")
	}
	if c.Artifact.StabilityWindow.Std() <= 0 {
		return errors.New(errors.EInvalidConfig, "artifact.stability_window must be positive")
	}
	if c.Artifact.StabilityBudget.Std() < c.Artifact.StabilityWindow.Std() {
		return errors.New(errors.EInvalidConfig, "artifact.stability_budget must be at least artifact.stability_window")
	}
	if c.Tmux.Bin == "" {
		return errors.New(errors.EInvalidConfig, "tmux.bin must not be empty")
	}
	if c.Oracle.Cmd == "" && len(c.Oracle.Args) > 0 {
		return errors.New(errors.EInvalidConfig, "oracle.args set without oracle.cmd")
	}
	return nil
}

// StorePath returns the agents store file path.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, "agents.json")
}

// EventsPath returns the lifecycle audit log path.
func (c Config) EventsPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}

// Template returns the config.yaml template written by muster init.
func Template(dataDir string) string {
	return fmt.Sprintf(defaultTemplate, dataDir)
}

const defaultTemplate = `# muster configuration

# State root: agents.json, events.jsonl, logs.
data_dir: %s

# Default coordination artifact filename under a worker's workspace.
workspace_doc: COORDINATION.md

locking:
  # Budget for acquiring the exclusive store lock before E_LOCK_TIMEOUT.
  timeout: 10s
  poll_interval: 50ms

artifact:
  # An artifact modified within the window is re-polled until the
  # budget runs out, then read best-effort.
  stability_window: 500ms
  stability_budget: 5s
  # Artifact age after which check flags an active worker as possibly
  # stalled. 0 disables the check.
  stall_threshold: 15m

# Optional tracker-CLI phase lookup. Leave cmd empty to disable.
# Example:
#   cmd: bd
#   args: [show, --json]
oracle:
  cmd: ""

tmux:
  bin: tmux

log:
  level: info
  # file defaults to <data_dir>/logs/muster.jsonl
  file: ""
`
