package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vesperhq/vesper/internal/config"
	"github.com/vesperhq/vesper/internal/legacy"
	"github.com/vesperhq/vesper/internal/store"
)

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import data from a legacy key-value export",
	Long: "Reads the flat key-value file produced by the old app and loads habits, " +
		"habit logs, and gratitude entries into the relational store. Runs once; " +
		"use --force to re-run after a completed import.",
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false,
		"Run the import even if it already completed")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Log))

	gw := store.NewGateway(cfg.Database.Path)
	if err := gw.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := gw.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()

	importer := legacy.NewImporter(
		legacy.NewKVStore(cfg.Legacy.Path),
		store.NewHabitRepository(gw),
		store.NewHabitLogRepository(gw),
		store.NewGratitudeRepository(gw),
	)

	report, err := importer.Run(ctx, importForce)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))

	if !report.Success && !report.Skipped {
		return fmt.Errorf("import finished with %d errors", len(report.Errors))
	}
	return nil
}
