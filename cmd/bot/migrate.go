package main

import (
	"time"

	"github.com/spf13/cobra"

	"olympiad-bot/internal/util"
)

var migrateDemo bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables and seed the reference lists",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		if err := e.openStore(false); err != nil {
			return err
		}
		defer e.store.Close()

		ctx := cmd.Context()
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
		if migrateDemo {
			if err := e.store.SeedDemo(ctx, util.Day(time.Now())); err != nil {
				return err
			}
			e.log.Info("demo data seeded")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDemo, "demo", false, "also seed demo users and olympiads")
}
