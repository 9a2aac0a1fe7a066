// Package cli wires the kanban commands: serve, migrate, user and token.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kanban/internal/config"
	"kanban/internal/storage"
)

// RootOptions holds global flags for all commands. Flags that were set on
// the command line win over the config file and the environment.
type RootOptions struct {
	ConfigPath string
	DBDriver   string
	DBDSN      string
	LogLevel   string
	LogFormat  string
}

// NewRootCommand creates the root command for the kanban binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "kanban",
		Short:         "Kanban board service",
		Long:          "Serves the kanban board API and manages its database, users and tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := config.Default()
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a JSONC config file")
	cmd.PersistentFlags().StringVar(&opts.DBDriver, "db-driver", defaults.DBDriver, "database driver (sqlite3|pgx)")
	cmd.PersistentFlags().StringVar(&opts.DBDSN, "db", defaults.DBDSN, "sqlite file path or postgres DSN")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", defaults.LogFormat, "log format (text|json)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// load resolves the config for cmd: defaults, file, environment, then
// explicitly set flags.
func (o *RootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("db-driver") {
		cfg.DBDriver = o.DBDriver
	}
	if flags.Changed("db") {
		cfg.DBDSN = o.DBDSN
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore loads the config and opens the database it names. Logs go to
// the command's error stream so stdout stays parseable.
func (o *RootOptions) openStore(cmd *cobra.Command) (config.Config, *storage.Store, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	store, err := storage.Open(cfg.DBDriver, cfg.DBDSN, cfg.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, store, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
