package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/application"
	"github.com/applymill/applymill/internal/candidate"
	"github.com/applymill/applymill/internal/generation"
	"github.com/applymill/applymill/internal/matching"
	"github.com/applymill/applymill/internal/notify"
	"github.com/applymill/applymill/internal/posting"
	"github.com/applymill/applymill/internal/scheduler"
	"github.com/applymill/applymill/internal/secrets"
	"github.com/applymill/applymill/internal/submission"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match candidates against postings and submit the eligible applications",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before submitting")
	runCmd.Flags().BoolP("plan-only", "p", false, "match and create records without submitting")
	runCmd.Flags().String("candidates-file", "", "candidates dump produced by the import command")
	runCmd.Flags().String("postings-file", "", "ingested postings dump")
	runCmd.Flags().Int("concurrency", 0, "override the configured worker count")

	viper.BindPFlag("candidates-file", runCmd.Flags().Lookup("candidates-file"))
	viper.BindPFlag("postings-file", runCmd.Flags().Lookup("postings-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting applymill", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	candidatesFile := viper.GetString("candidates-file")
	if candidatesFile == "" {
		candidatesFile = config.CandidatesFile
	}
	postingsFile := viper.GetString("postings-file")
	if postingsFile == "" {
		postingsFile = config.PostingsFile
	}
	if candidatesFile == "" || postingsFile == "" {
		logger.Fatal("candidates-file and postings-file are required")
	}
	if config.PortalURL == "" {
		logger.Fatal("portal-url is required")
	}

	candidates, err := candidate.FromFile(candidatesFile)
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}
	logger.Info("loaded candidates", zap.Int("count", len(candidates)))

	postings, err := posting.FromFile(postingsFile)
	if err != nil {
		logger.Fatal("loading postings", zap.Error(err))
	}
	logger.Info("loaded postings", zap.Int("count", postings.Len()))

	backendSet, err := buildBackends(ctx, config)
	if err != nil {
		logger.Fatal("preparing storage", zap.Error(err))
	}
	defer backendSet.Close()

	engine, err := buildGenerationEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the generation engine", zap.Error(err))
	}

	notifier, err := buildNotifier(config)
	if err != nil {
		logger.Fatal("preparing notifications", zap.Error(err))
	}

	submitter := submission.NewBrowserSubmitter(
		submissionConfig(config),
		actionTimeout(config),
		logger,
	)

	workers := config.Workers
	if override, _ := cmd.Flags().GetInt("concurrency"); override > 0 {
		workers = override
	}

	sched := scheduler.New(
		backendSet.store,
		backendSet.vault,
		matching.NewEngine(logger),
		engine,
		submitter,
		backendSet.counter,
		notifier,
		scheduler.Config{Workers: workers},
		logger,
	)

	jobs, err := sched.Plan(ctx, candidates, postings.Items)
	if err != nil {
		logger.Fatal("planning failed", zap.Error(err))
	}

	if len(jobs) == 0 {
		logger.Info("exiting", zap.String("reason", "no eligible pairs to process"))
		return
	}
	logger.Info("planned applications", zap.Int("count", len(jobs)))

	if cmd.Flag("plan-only").Value.String() == "true" {
		logger.Info("exiting", zap.String("reason", "plan-only requested"))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Submit %d applications?", len(jobs)),
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	if err := sched.Run(ctx, jobs); err != nil {
		logger.Fatal("processing failed", zap.Error(err))
	}

	reportOutcomes(ctx, backendSet.store, jobs, notifier, logger)
}

// reportOutcomes summarises the records processed in this run. Counting the
// jobs rather than the whole store keeps historical records out of the
// summary on a persistent backend.
func reportOutcomes(ctx context.Context, store application.Store, jobs []scheduler.Job, notifier *notify.TelegramNotifier, logger *zap.Logger) {
	counts := make(map[application.State]int)
	for _, job := range jobs {
		record, err := store.Get(ctx, job.Record.ID)
		if err != nil {
			logger.Warn("loading processed record", zap.Error(err), zap.String("application_id", job.Record.ID.String()))
			continue
		}
		counts[record.State]++
	}

	states := []application.State{
		application.StateSubmitted,
		application.StateFailed,
		application.StateNeedsReview,
	}

	var summary []string
	for _, state := range states {
		logger.Info("run outcome", zap.String("state", string(state)), zap.Int("count", counts[state]))
		summary = append(summary, fmt.Sprintf("%s: %d", state, counts[state]))
	}

	if err := notifier.Notify(ctx, "Run finished. "+strings.Join(summary, ", ")); err != nil {
		logger.Warn("failed to send run summary", zap.Error(err))
	}
}

func buildGenerationEngine(ctx context.Context, config *Config, logger *zap.Logger) (*generation.Engine, error) {
	genCfg := config.Generation
	if genCfg == nil {
		genCfg = &GenerationConfig{}
	}

	var apiKey, model, backupModel string
	var apiKeyFile string
	var requestTimeout time.Duration
	if genCfg.Gemini != nil {
		apiKey = genCfg.Gemini.APIKey
		apiKeyFile = genCfg.Gemini.APIKeyFile
		model = genCfg.Gemini.Model
		backupModel = genCfg.Gemini.BackupModel
		requestTimeout = time.Duration(genCfg.Gemini.RequestTimeoutSeconds) * time.Second
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: apiKey,
		File:  apiKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	generator, err := generation.NewGenerator(ctx, key, model, backupModel, requestTimeout, logger)
	if err != nil {
		return nil, err
	}

	return generation.NewEngine(generator, generation.Config{
		WordCountMin:     genCfg.WordCountMin,
		WordCountMax:     genCfg.WordCountMax,
		QualityThreshold: genCfg.QualityThreshold,
	}, logger), nil
}

func submissionConfig(config *Config) submission.Config {
	cfg := submission.DefaultConfig(config.PortalURL)
	if config.Submission == nil {
		return cfg
	}
	if config.Submission.SectionAttempts > 0 {
		cfg.SectionAttempts = config.Submission.SectionAttempts
	}
	if config.Submission.SectionDelaySeconds > 0 {
		cfg.SectionDelay = time.Duration(config.Submission.SectionDelaySeconds) * time.Second
	}
	return cfg
}

func actionTimeout(config *Config) time.Duration {
	if config.Submission != nil && config.Submission.ActionTimeoutSeconds > 0 {
		return time.Duration(config.Submission.ActionTimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}
