package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"olympiad-bot/internal/config"
	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util/slogx"
)

var optionsPath string

var rootCmd = &cobra.Command{
	Use:   "olympiad-bot",
	Short: "Telegram bot for olympiad registration and moderation",
	Args:  cobra.ExactArgs(0),
	RunE:  runServe,
}

// env is what every command needs: configuration, a logger and the store.
type env struct {
	cfg   config.Config
	opts  config.Options
	log   *slog.Logger
	store *storage.Store
}

func setup() (*env, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	opts, err := config.LoadOptions(optionsPath)
	if err != nil {
		return nil, err
	}
	level, err := slogx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, opts: opts, log: slogx.New(level)}, nil
}

// openStore connects to the database. A lazy pool does not check the
// connection up front.
func (e *env) openStore(lazy bool) error {
	dbOpts := e.opts.DB
	dbOpts.Lazy = lazy
	store, err := storage.OpenPostgres(e.log, e.cfg.DB.DSN(), dbOpts)
	if err != nil {
		return err
	}
	e.store = store
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&optionsPath, "config", "c", "", "options file (TOML)")
	rootCmd.AddCommand(serveCmd, migrateCmd, exportCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
