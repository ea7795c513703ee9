// Package cli wires the ftpseek commands.
package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/montrey/ftpseek/config"
	"github.com/montrey/ftpseek/logger"
	"github.com/montrey/ftpseek/store"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// Exit codes returned by the process.
const (
	ExitFound    = 0
	ExitNotFound = 1
	ExitFailure  = 2
)

// ExitError carries a process exit code. A nil Err means the outcome was
// already reported and nothing more should be printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitFound
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// app holds state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	logFile    string
	dbPath     string

	cfg     *config.Config
	closers []io.Closer
}

// NewRootCommand creates and returns the root cobra command for ftpseek
func NewRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "ftpseek",
		Short: "Find which directory of an FTP server holds a file",
		Long: `ftpseek searches an FTP server for a file by name.

It lists the start directory and its children first, then walks one
level deeper at a time, so the shallowest copy of the file is found.
Directories can be skipped with patterns, and the depth is bounded.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints errors so it can honour ExitError
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath(), "config file (.yaml or .toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.StringVar(&a.dbPath, "db", "", "history database path")

	// Add subcommands
	cmd.AddCommand(newFindCommand(a))
	cmd.AddCommand(newHistoryCommand(a))
	cmd.AddCommand(newProfileCommand(a))

	return cmd
}

// load reads the config file, applies the environment and the global flags,
// then sets up logging.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if flags.Changed("db") {
		cfg.DBPath = a.dbPath
	}

	if err := logger.Configure(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	if cfg.LogFile != "" {
		f, err := logger.SetupFile(cfg.LogFile)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		a.closers = append(a.closers, f)
	}

	a.cfg = cfg
	return nil
}

func (a *app) openStore() (*sql.DB, error) {
	db, err := store.InitDB(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	return db, nil
}

// close releases the store and log file. Subcommands defer it, since cobra
// skips post-run hooks when RunE fails.
func (a *app) close() {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	if err := result.ErrorOrNil(); err != nil {
		logger.Named("cli").WithError(err).Warn("Cleanup failed")
	}
}
