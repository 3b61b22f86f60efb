package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/r0cstar09/jobtailor/internal/ai"
	"github.com/r0cstar09/jobtailor/internal/ai/gemini"
	"github.com/r0cstar09/jobtailor/internal/artifact"
	"github.com/r0cstar09/jobtailor/internal/feed"
	"github.com/r0cstar09/jobtailor/internal/generate"
	"github.com/r0cstar09/jobtailor/internal/job"
	"github.com/r0cstar09/jobtailor/internal/logger"
	"github.com/r0cstar09/jobtailor/internal/normalize"
	"github.com/r0cstar09/jobtailor/internal/notify"
	"github.com/r0cstar09/jobtailor/internal/pipeline"
	"github.com/r0cstar09/jobtailor/internal/profile"
	"github.com/r0cstar09/jobtailor/internal/score"
	"github.com/r0cstar09/jobtailor/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	PromptProceed         = "Proceed"
	PromptNo              = "No"
	PromptReportByCompany = "Report by company"
	PromptJobsToFile      = "Dump jobs to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptProceed, PromptNo, PromptReportByCompany, PromptJobsToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the feed, score the postings and write tailored documents",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("feed", "", "RSS or Atom feed URL with job postings")
	runCmd.Flags().String("master", "", "path to the master resume file")
	runCmd.Flags().Float64("threshold", 0.7, "inclusive relevance threshold in [0,1]")
	runCmd.Flags().String("out", "applications", "directory for generated application documents")
	runCmd.Flags().Bool("dry-run", false, "fetch and normalize only, no model calls and no writes")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before scoring")

	viper.BindPFlag("feed.url", runCmd.Flags().Lookup("feed"))
	viper.BindPFlag("master-resume", runCmd.Flags().Lookup("master"))
	viper.BindPFlag("threshold", runCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("output-dir", runCmd.Flags().Lookup("out"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobtailor", zap.String("version", version))

	dryRun := cmd.Flag("dry-run").Value.String() == "true"

	feedURL := strings.TrimSpace(config.Feed.URL)
	if feedURL == "" {
		logger.Fatal("feed url is required",
			zap.String("hint", "set feed.url in the configuration file or pass --feed"),
		)
	}

	if strings.TrimSpace(config.MasterResume) == "" {
		logger.Fatal("master resume path is required",
			zap.String("hint", "set master-resume in the configuration file or pass --master"),
		)
	}

	if config.Threshold < 0 || config.Threshold > 1 {
		logger.Fatal("threshold must be within [0,1]", zap.Float64("threshold", config.Threshold))
	}

	prof, err := profile.Load(config.MasterResume)
	if err != nil {
		logger.Fatal("loading the master resume", zap.Error(err))
	}

	strategy := strings.TrimSpace(strings.ToLower(config.Scoring.Strategy))
	if strategy == "" {
		strategy = "llm"
	}

	// Credentials and the output root are validated up front so a bad key
	// or an unwritable directory fails before any model spend, not after
	// the feed round trip.
	var apiKey string
	var writer *artifact.Writer
	if !dryRun {
		apiKey, err = resolveAPIKey(config)
		if err != nil {
			logger.Fatal("loading gemini api key",
				zap.Error(err),
				zap.String("hint", "set ai.gemini.api-key-file, ai.gemini.api-key or the GEMINI_API_KEY environment variable"),
			)
		}

		writer = artifact.NewWriter(config.OutputDir, logger)
		if err := writer.EnsureRoot(); err != nil {
			logger.Fatal("preparing the output directory", zap.Error(err))
		}
	}

	summary := job.NewRunSummary(feedURL, strategy, config.Threshold)

	entries, err := feed.New(logger).Fetch(ctx, feedURL)
	if err != nil {
		logger.Fatal("fetching the feed", zap.Error(err))
	}
	summary.EntriesFetched = len(entries)

	jobs, stats := normalize.New(logger).Normalize(entries)
	summary.Jobs = jobs.Len()
	summary.SkippedUnidentifiable = stats.SkippedUnidentifiable
	summary.DuplicatesCollapsed = stats.DuplicatesCollapsed

	logger.Info("normalized the feed",
		zap.Int("entries", len(entries)),
		zap.Int("jobs", jobs.Len()),
		zap.Int("skipped_unidentifiable", stats.SkippedUnidentifiable),
		zap.Int("duplicates_collapsed", stats.DuplicatesCollapsed),
	)

	if dryRun {
		preview(jobs, logger)
		finish(summary, logger)
		return
	}

	if jobs.Len() == 0 {
		logger.Info("no jobs to process")
		finish(summary, logger)
		sendNotification(ctx, config, summary, logger)
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "false" {
		if err := confirm(jobs, logger); err != nil {
			if errors.Is(err, errExit) {
				logger.Info("exiting", zap.String("reason", "declined at confirmation"))
				return
			}
			logger.Fatal("confirmation prompt", zap.Error(err))
		}
	}

	model, err := newModelClient(ctx, config, apiKey, logger)
	if err != nil {
		logger.Fatal("creating the gemini client", zap.Error(err))
	}

	scorer, err := newScorer(strategy, model, logger)
	if err != nil {
		logger.Fatal("selecting the scoring strategy", zap.Error(err))
	}

	generator := generate.New(model, generate.Options{
		ResumeInstructions: config.Prompts.Resume,
		CoverInstructions:  config.Prompts.CoverLetter,
	}, logger)

	pipe := &pipeline.Pipeline{
		Scorer:      scorer,
		Gate:        score.Gate{Threshold: config.Threshold},
		Generator:   generator,
		Writer:      writer,
		Logger:      logger,
		Concurrency: config.Concurrency,
	}

	pipe.Run(ctx, prof, jobs, summary)

	finish(summary, logger)
	sendNotification(ctx, config, summary, logger)
}

// confirm shows the selection menu until the user proceeds or declines.
func confirm(jobs *job.Jobs, logger *zap.Logger) error {
	for {
		logger.Info("current list of jobs", zap.Int("count", jobs.Len()))

		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptProceed:
			return nil
		case PromptNo:
			return errExit
		case PromptReportByCompany:
			pretty, _ := json.MarshalIndent(jobs.ReportByCompany(), "", "  ")
			logger.Info(string(pretty), zap.Int("jobs count", jobs.Len()))
		case PromptJobsToFile:
			filename, err := jobs.DumpToTmpFile()
			if err != nil {
				return fmt.Errorf("dump jobs to file: %w", err)
			}
			logger.Info("dumping jobs to file", zap.String("filename", filename))
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func preview(jobs *job.Jobs, logger *zap.Logger) {
	for _, j := range jobs.Items {
		logger.Info("would score",
			zap.String("job_id", j.ID),
			zap.String("title", j.Title),
			zap.String("company", j.Company),
			zap.String("url", j.URL),
		)
	}
	logger.Info("dry run complete", zap.Int("jobs", jobs.Len()))
}

func finish(summary *job.RunSummary, logger *zap.Logger) {
	if summary.FinishedAt.IsZero() {
		summary.Finish()
	}
	logger.Info("run finished", summary.Fields()...)
}

func resolveAPIKey(config *Config) (string, error) {
	return secrets.Resolve("gemini api key", config.AI.Gemini.APIKey, config.AI.Gemini.APIKeyFile)
}

func newModelClient(ctx context.Context, config *Config, apiKey string, log *zap.Logger) (*ai.Paced, error) {
	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          config.AI.Gemini.Model,
		EmbeddingModel: config.AI.Gemini.EmbeddingModel,
		MaxRetries:     config.AI.Gemini.MaxRetries,
		Timeout:        config.AI.Gemini.Timeout,
		MaxLogLength:   config.AI.Gemini.MaxLogLength,
	}, logger.WithProvider(log, "gemini", config.AI.Gemini.Model))
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return ai.NewPaced(client, client, limiter), nil
}

func newScorer(strategy string, model *ai.Paced, logger *zap.Logger) (score.Scorer, error) {
	switch strategy {
	case "llm":
		return score.NewLLMScorer(model, logger), nil
	case "embedding":
		return score.NewEmbeddingScorer(model, logger), nil
	default:
		return nil, fmt.Errorf("unsupported scoring strategy: %s (use llm or embedding)", strategy)
	}
}

// sendNotification delivers the summary on a best-effort basis. Failures are
// logged and never fail the run.
func sendNotification(ctx context.Context, config *Config, summary *job.RunSummary, logger *zap.Logger) {
	var notifier notify.Notifier = notify.Nop{}

	if config.Notify.Enabled {
		if err := config.Notify.SMTP.Validate(); err != nil {
			logger.Warn("skipping the run notification", zap.Error(err))
			return
		}
		notifier = notify.NewSMTP(*config.Notify.SMTP, logger)
	}

	if err := notifier.Notify(ctx, summary); err != nil {
		logger.Warn("sending the run notification", zap.Error(err))
	}
}
