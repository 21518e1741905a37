package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/application"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List applications waiting for manual follow-up",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().Bool("failed", false, "list failed applications instead")
	reviewCmd.Flags().Bool("dump", false, "print full records as json")
}

// review queries terminal records for operators. Terminal records are kept
// for audit and never mutated, so this command is read-only.
func review(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	backendSet, err := buildBackends(ctx, config)
	if err != nil {
		logger.Fatal("preparing storage", zap.Error(err))
	}
	defer backendSet.Close()

	state := application.StateNeedsReview
	if cmd.Flag("failed").Value.String() == "true" {
		state = application.StateFailed
	}

	records, err := backendSet.store.ListByState(ctx, state)
	if err != nil {
		logger.Fatal("listing records", zap.Error(err))
	}

	if len(records) == 0 {
		logger.Info("nothing to review", zap.String("state", string(state)))
		return
	}

	if cmd.Flag("dump").Value.String() == "true" {
		pretty, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	for _, record := range records {
		fmt.Printf("%s  candidate=%s  posting=%s  updated=%s\n  reason: %s\n",
			record.ID, record.CandidateID, record.PostingID,
			record.UpdatedAt.Format("2006-01-02 15:04"), record.FailureReason)
	}
	logger.Info("records listed", zap.String("state", string(state)), zap.Int("count", len(records)))
}
