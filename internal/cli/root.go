package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/garrett-reinhard/ord-interface/internal/config"
	"github.com/garrett-reinhard/ord-interface/internal/engine"
	"github.com/garrett-reinhard/ord-interface/internal/logging"
	"github.com/garrett-reinhard/ord-interface/internal/server"
	"github.com/garrett-reinhard/ord-interface/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string

	// OpenRunner overrides how commands reach the database (for testing).
	// If nil, a pgx pool is opened from the loaded config.
	OpenRunner RunnerFactory
}

// RunnerFactory opens a query runner. The returned func releases it.
type RunnerFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (server.Runner, func(), error)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ordq CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ordq",
		Short: "ordq - Open Reaction Database query tool",
		Long:  "Query reactions in an Open Reaction Database PostgreSQL store by id, DOI or chemical structure.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewDatasetsCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadConfig reads configuration from the environment, the dotenv file and
// the optional YAML file.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath, o.EnvFile)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	return cfg, nil
}

// logger builds the command logger. --verbose forces debug level.
func (o *RootOptions) logger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	if o.Verbose {
		logCfg.Level = "debug"
	}
	if logCfg.Output == nil {
		logCfg.Output = zapcore.AddSync(cmd.ErrOrStderr())
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	return logger, nil
}

// openRunner connects to the database using OpenRunner when set.
func (o *RootOptions) openRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (server.Runner, func(), error) {
	if o.OpenRunner != nil {
		return o.OpenRunner(ctx, cfg, logger)
	}
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(st, cfg.Query, logger)
	return eng, st.Close, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	logger.Debug("opening store",
		zap.String("host", cfg.Postgres.Host),
		zap.Int("port", cfg.Postgres.Port),
		zap.String("database", cfg.Postgres.Database),
	)
	return store.Open(ctx, cfg.Postgres.DSN(), cfg.Postgres.StoreOptions(), logger)
}
