package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"olympiad-bot/internal/report"
)

var (
	exportOlympiad uint
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the application report of one olympiad to an xlsx file",
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

		table, err := report.Load(cmd.Context(), e.store, exportOlympiad)
		if err != nil {
			return fmt.Errorf("load report: %w", err)
		}
		body, err := report.RenderXLSX(table)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		out := exportOut
		if out == "" {
			out = report.FileName(exportOlympiad, time.Now())
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		e.log.Info("report written", slog.String("file", out), slog.Int("rows", table.Total()))
		return nil
	},
}

func init() {
	p := exportCmd.Flags()
	p.UintVar(&exportOlympiad, "olympiad", 0, "olympiad id")
	p.StringVarP(&exportOut, "out", "o", "", "output file (default: generated name)")
	if err := exportCmd.MarkFlagRequired("olympiad"); err != nil {
		panic(err)
	}
}
