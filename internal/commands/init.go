package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redtail/muster/internal/config"
	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/fs"
)

// InitOpts holds options for the init command.
type InitOpts struct {
	// Force overwrites an existing config file.
	Force bool
}

// Init creates the data directory and writes the starter config file.
// An existing config is never overwritten without --force.
func Init(_ context.Context, d Deps, opts InitOpts, stdout, stderr io.Writer) error {
	d = d.withDefaults()

	configState := "created"
	if _, err := d.FS.Stat(d.ConfigPath); err == nil {
		if !opts.Force {
			return errors.NewWithDetails(errors.EConfigExists,
				"config already exists; use --force to overwrite",
				map[string]string{"path": d.ConfigPath})
		}
		configState = "overwritten"
	} else if !os.IsNotExist(err) {
		return errors.Wrap(errors.EInvalidConfig, "could not check config", err)
	}

	dataDir := d.Config.DataDir
	dataDirState := "exists"
	if _, err := d.FS.Stat(dataDir); os.IsNotExist(err) {
		dataDirState = "created"
	}
	if err := d.FS.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "could not create data directory", err)
	}

	if err := d.FS.MkdirAll(filepath.Dir(d.ConfigPath), 0o755); err != nil {
		return errors.Wrap(errors.EPersistFailed, "could not create config directory", err)
	}
	if err := fs.WriteFileAtomic(d.FS, d.ConfigPath, []byte(config.Template(dataDir)), 0o644); err != nil {
		return errors.Wrap(errors.EPersistFailed, "could not write config", err)
	}

	_, _ = fmt.Fprintf(stdout, "config_path: %s\n", d.ConfigPath)
	_, _ = fmt.Fprintf(stdout, "config: %s\n", configState)
	_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", dataDir)
	_, _ = fmt.Fprintf(stdout, "data_dir_state: %s\n", dataDirState)
	return nil
}
