package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/candidate"
)

var importCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import candidate profiles from a CSV export",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runImport(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("out", "o", "candidates.json", "output file for the imported profiles")
}

func runImport(cmd *cobra.Command, path string) {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	profiles, rowErrors, err := candidate.ImportFile(path)
	if err != nil {
		logger.Fatal("importing candidates", zap.Error(err))
	}

	// Malformed rows are reported individually, never abort the batch.
	for _, rowErr := range rowErrors {
		logger.Warn("skipping malformed row",
			zap.Int("line", rowErr.Line),
			zap.Error(rowErr.Err),
		)
	}

	out := cmd.Flag("out").Value.String()
	if err := candidate.SaveToFile(out, profiles); err != nil {
		logger.Fatal("writing candidates file", zap.Error(err))
	}

	logger.Info("import finished",
		zap.Int("imported", len(profiles)),
		zap.Int("skipped", len(rowErrors)),
		zap.String("out", out),
	)
}
