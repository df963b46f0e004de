package cli

import (
	"io"
	"os"

	"github.com/redtail/muster/internal/commands"
	"github.com/redtail/muster/internal/config"
	"github.com/redtail/muster/internal/errors"
	"github.com/redtail/muster/internal/exec"
	"github.com/redtail/muster/internal/fs"
	"github.com/redtail/muster/internal/logging"
)

// newDeps builds the shared command dependencies for one invocation:
// load the config, apply global overrides, and open the logger. The
// returned closer owns the log file and must be closed on exit.
func newDeps() (commands.Deps, io.Closer, error) {
	fsys := fs.RealFS{}

	home, err := os.UserHomeDir()
	if err != nil {
		return commands.Deps{}, nil, errors.Wrap(errors.EInternal, "failed to resolve home directory", err)
	}

	g := GetGlobalOpts()
	cfgPath := g.Config
	if cfgPath == "" {
		cfgPath = config.DefaultPath(home)
	}

	cfg, found, err := config.Load(fsys, cfgPath, home)
	if err != nil {
		return commands.Deps{}, nil, err
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = logging.FileFor(cfg.DataDir)
	}
	log, closer := logging.New(logging.Options{Level: cfg.Log.Level, File: logFile})

	return commands.Deps{
		Config:      cfg,
		ConfigPath:  cfgPath,
		ConfigFound: found,
		FS:          fsys,
		Runner:      exec.NewRealRunner(),
		Log:         log,
	}, closer, nil
}
