package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/lexitutor/internal/ai"
	"github.com/example/lexitutor/internal/bot"
	"github.com/example/lexitutor/internal/cache"
	"github.com/example/lexitutor/internal/database"
	"github.com/example/lexitutor/internal/difficulty"
	"github.com/example/lexitutor/internal/lesson"
	"github.com/example/lexitutor/internal/scheduler"
	"github.com/example/lexitutor/internal/selection"
	"github.com/example/lexitutor/internal/spaced_repetition"
	"github.com/example/lexitutor/internal/validation"
)

// serveCmd runs the Telegram bot and the background jobs
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store := database.NewStore(db)
		modelCache := cache.New(store.Cache, log)

		// Without a model the validator stops at the fuzzy tier and only
		// dictionary words can be added
		var (
			model      validation.Model
			translator lesson.Translator
		)
		client, err := ai.New(cfg.OpenAI, log)
		switch {
		case errors.Is(err, ai.ErrNoAPIKey):
			log.Warn("language model is not configured, running without it")
		case err != nil:
			return fmt.Errorf("language model: %w", err)
		default:
			model = client
			translator = cache.NewTranslator(modelCache, client, cfg.Cache.TranslationTTL, log)
		}

		adjuster := difficulty.New(
			cfg.Learning.MasteredThreshold,
			cfg.Learning.ChoiceToInputThreshold,
			cfg.Learning.ReviewingCorrectTotal,
			difficulty.LogObserver(log),
		)
		orchestrator := lesson.New(lesson.Deps{
			Repositories: lesson.RepositoriesFromStore(store),
			Selector:     selection.New(adjuster, nil),
			Adjuster:     adjuster,
			Scheduler:    spaced_repetition.NewSM2(),
			Validator:    validation.New(cfg.Learning.FuzzyMatchThreshold, cfg.Learning.MaxAnswerLength, model, modelCache, log),
			Translator:   translator,
		}, cfg.Learning, log)

		telegram, err := bot.New(cfg.Telegram, orchestrator, modelCache, log)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}

		if cfg.Scheduler.Enabled {
			jobs := scheduler.New(cfg.Scheduler, cfg.Cache.CleanupInterval, store.Profiles, telegram, modelCache, log)
			if err := jobs.Start(); err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			defer jobs.Stop()
		}

		log.Info("bot is running, press Ctrl+C to stop")
		if err := telegram.Run(ctx); err != nil {
			return err
		}
		log.Info("bot stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
