package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dinerd/internal/catalog"
	"dinerd/internal/store"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage the restaurant dataset",
}

var dataImportCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Ingest a restaurant CSV into the configured database",
	Long: `Replaces the restaurant table with the rows of the given CSV.
With no argument the configured dataset CSV is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDataImport,
}

var dataStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dataset counts and the distinct values per filterable slot",
	RunE:  runDataStats,
}

func init() {
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataStatsCmd)
}

func runDataImport(cmd *cobra.Command, args []string) error {
	csvPath := cfg.Dataset.CSVPath
	if len(args) == 1 {
		csvPath = args[0]
	}
	if csvPath == "" {
		return fmt.Errorf("no CSV path given and none configured")
	}
	if cfg.Dataset.DatabasePath == ":memory:" {
		return fmt.Errorf("importing into an in-memory database is pointless; set dataset.database_path")
	}

	st, err := store.Open(cfg.Dataset.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ImportCSV(csvPath)
	if err != nil {
		return err
	}
	logger.Info("import finished",
		zap.String("csv", csvPath),
		zap.String("database", cfg.Dataset.DatabasePath),
		zap.Int("restaurants", n))
	fmt.Printf("Imported %d restaurants into %s\n", n, cfg.Dataset.DatabasePath)
	return nil
}

func runDataStats(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Dataset.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Dataset.DatabasePath == ":memory:" && cfg.Dataset.CSVPath != "" {
		if _, err := st.ImportCSV(cfg.Dataset.CSVPath); err != nil {
			return fmt.Errorf("failed to ingest dataset: %w", err)
		}
	}

	n, err := st.Count()
	if err != nil {
		return err
	}
	fmt.Printf("Restaurants: %d\n", n)

	for _, slot := range catalog.Slots {
		values, err := st.DistinctValues(slot)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %s\n", slot+":", strings.Join(values, ", "))
	}
	return nil
}
