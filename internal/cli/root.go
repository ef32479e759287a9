package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/pacservice-go/internal/config"
	"github.com/John-Robertt/pacservice-go/internal/logging"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBFile     string
	Verbose    bool
	Format     string // "json" | "text"

	getenv func(string) string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pacservice CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Getenv)
}

func newRootCommand(getenv func(string) string) *cobra.Command {
	opts := &RootOptions{getenv: getenv}

	cmd := &cobra.Command{
		Use:   "pacservice",
		Short: "PAC proxy registry service",
		Long: `pacservice keeps a registry of upstream proxies and the domains routed
through each, persists it to a JSON file, and serves it as a PAC script.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", msg)
				return NewExitError(ExitCommandError, msg)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBFile, "db", "", "registry file (overrides db_file and DB_FILE)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewHealthcheckCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewPACCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewProxyCommand(opts))
	cmd.AddCommand(NewDomainCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // keep diagnostics out of JSON output
		Verbose:   o.Verbose,
	}
}

// loadConfig resolves settings: defaults, then the config file, then the
// environment, then flags.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
	}
	cfg.ApplyEnv(o.getenv)
	if o.DBFile != "" {
		cfg.DBFile = o.DBFile
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, func() error, error) {
	logger, closeFn, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Journal: cfg.Log.Journal,
	})
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "init logging", err)
	}
	return logger, closeFn, nil
}

func openStore(cfg config.Config, logger *slog.Logger) *store.Store {
	return store.Open(cfg.DBFile,
		store.WithLogger(logger),
		store.WithRetry(cfg.Persist.MaxAttempts, cfg.Persist.RetryDelay),
	)
}

// lockRegistry takes the registry lock so that only one process writes the
// file at a time.
func lockRegistry(path string) (*store.FileLock, error) {
	lock, err := store.LockFile(path)
	if errors.Is(err, store.ErrLocked) {
		return nil, fmt.Errorf("registry file %s is in use by another process (is serve running? use the HTTP API): %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("lock registry file: %w", err)
	}
	return lock, nil
}

// withStore runs fn against the configured registry file. Admin commands log
// at warn unless --verbose, so routine commit records stay off the terminal.
func (o *RootOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store, f *OutputFormatter) error) error {
	return o.runStore(cmd, false, fn)
}

// withWritableStore is withStore for commands that change the registry. It
// fails fast while another process, usually serve, holds the registry lock.
func (o *RootOptions) withWritableStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store, f *OutputFormatter) error) error {
	return o.runStore(cmd, true, fn)
}

func (o *RootOptions) runStore(cmd *cobra.Command, writable bool, fn func(ctx context.Context, st *store.Store, f *OutputFormatter) error) error {
	f := o.formatter(cmd)
	cfg, err := o.loadConfig()
	if err != nil {
		return f.Fail(err)
	}
	if !o.Verbose {
		cfg.Log.Level = "warn"
	}
	logger, closeLog, err := newLogger(cmd, cfg)
	if err != nil {
		return f.Fail(err)
	}
	defer closeLog()

	if writable {
		lock, err := lockRegistry(cfg.DBFile)
		if err != nil {
			return f.Fail(err)
		}
		defer lock.Release()
	}

	st := openStore(cfg, logger)
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.Load(ctx); err != nil {
		return f.Fail(err)
	}
	f.VerboseLog("registry file: %s", st.Path())
	return fn(ctx, st, f)
}
