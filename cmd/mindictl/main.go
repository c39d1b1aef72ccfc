// Command mindictl administers a Mindi database: migrations, accounts,
// demo data and one-off completions.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/logging"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/server"
	"github.com/sazalo101/mindis/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what a command needs once config is loaded and the store is open.
// The caller must defer env.Close().
type env struct {
	cfg      config.Config
	store    store.Store
	services server.Services
	logger   *slog.Logger
}

func (e *env) Close() error {
	return e.store.Close()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newEnv opens the configured store with clock. Logs go to stderr so
// command output stays clean.
func newEnv(ctx context.Context, clock models.Clock, stderr io.Writer) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)

	st, err := store.Open(ctx, cfg, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	services, err := server.NewServices(cfg, st, server.NewChatter(cfg, logger), clock, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("initializing services: %w", err)
	}
	return &env{cfg: cfg, store: st, services: services, logger: logger}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mindictl",
		Short:        "Administer the Mindi mood journal backend",
		SilenceUsage: true,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	configCmd.AddCommand(newConfigShowCmd())

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	userCmd.AddCommand(newUserCreateCmd())

	root.AddCommand(configCmd)
	root.AddCommand(userCmd)
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newInsightCmd())
	root.AddCommand(newSuggestCmd())
	root.AddCommand(newSeedCmd())
	return root
}
