package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/bootstrap"
	"github.com/roach88/ledger/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides the configured database when set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "ledger - personal financial records",
		Long: `A local store for transactions, budgets and recurring obligations.

Every command goes through the access core: reads run together, writes
run one at a time, and requests are admitted in arrival order.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig reads the config file and environment, then applies flag
// overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// setupLogging installs a text slog handler on the command's stderr.
func setupLogging(cmd *cobra.Command, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// openApp builds and installs the application context for one command.
// The returned close function must be called before the command returns.
// Callers report errors with ExitCommandError.
func openApp(cmd *cobra.Command, opts *RootOptions) (*bootstrap.App, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogging(cmd, cfg.SlogLevel())

	ctx := commandContext(cmd)
	logger.Debug("opening database", "path", cfg.Database, "policy", cfg.Policy)
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	app.Install()

	closeFn := func() {
		if err := app.Close(ctx); err != nil {
			logger.Error("error closing application", "error", err)
		}
	}
	return bootstrap.MustApp(app), closeFn, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
