package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/pierre-chaville/lessons/internal/events"
	"github.com/pierre-chaville/lessons/internal/generation"
	"github.com/pierre-chaville/lessons/internal/platform/gemini"
	"github.com/pierre-chaville/lessons/internal/platform/openai"
	"github.com/pierre-chaville/lessons/internal/platform/postgres"
	"github.com/pierre-chaville/lessons/internal/platform/whisper"
	"github.com/pierre-chaville/lessons/internal/service"
	"github.com/pierre-chaville/lessons/internal/store"
	"github.com/pierre-chaville/lessons/internal/task"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	lessonStore store.LessonStore
	courseStore store.CourseStore
	themeStore  store.ThemeStore
	taskStore   task.TaskStore

	lessonService service.LessonService
	courseService service.CourseService
	themeService  service.ThemeService
	taskService   service.TaskService

	dispatcher *task.Dispatcher
}

// newApplication creates an application instance with all dependencies
// initialized. The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.lessonStore = postgres.NewPostgresLessonStore(db, logger)
	app.courseStore = postgres.NewPostgresCourseStore(db, logger)
	app.themeStore = postgres.NewPostgresThemeStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	emitter := events.NewInMemoryEventEmitter(logger)

	app.lessonService = service.NewLessonService(db, app.lessonStore, cfg.Storage.AudioDir, logger)
	app.courseService = service.NewCourseService(app.courseStore, logger)
	app.themeService = service.NewThemeService(app.themeStore, logger)
	app.taskService = service.NewTaskService(app.taskStore, emitter, logger)

	corrector, editor, summarizer, err := setupProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("LLM provider initialized", "provider", cfg.LLM.Provider)

	transcriber := whisper.NewTranscriber(cfg.Whisper, cfg.Transcribe, logger)

	if err := app.setupDispatcher(corrector, editor, summarizer, transcriber); err != nil {
		return nil, err
	}

	// Wake the dispatcher as soon as a task is created instead of
	// waiting for its next poll.
	emitter.RegisterHandler(events.HandlerFunc(func(ctx context.Context, event *events.TaskCreatedEvent) error {
		app.dispatcher.Notify()
		return nil
	}))

	logger.Info("application initialized")
	return app, nil
}

// setupProviders builds the corrector, editor and summarizer for the
// configured LLM provider. The openai client also serves Anthropic
// through its OpenAI-compatible endpoint.
func setupProviders(ctx context.Context, cfg *config.Config) (generation.Corrector, generation.Editor, generation.Summarizer, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		return gemini.NewCorrector(client, cfg.Correction), gemini.NewEditor(client, cfg.Edition), gemini.NewSummarizer(client, cfg.Summary), nil
	case "openai", "anthropic":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" && cfg.LLM.Provider == "anthropic" {
			baseURL = "https://api.anthropic.com/v1/chat/completions"
		}
		client, err := openai.NewClient(openai.Config{APIKey: cfg.LLM.APIKey, BaseURL: baseURL})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize %s client: %w", cfg.LLM.Provider, err)
		}
		return openai.NewCorrector(client, cfg.Correction), openai.NewEditor(client, cfg.Edition), openai.NewSummarizer(client, cfg.Summary), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// setupDispatcher creates the background task dispatcher and registers
// the handler for each task type.
func (app *application) setupDispatcher(corrector generation.Corrector, editor generation.Editor, summarizer generation.Summarizer, transcriber generation.Transcriber) error {
	dispatcherConfig := task.DispatcherConfig{
		PollInterval: time.Duration(app.config.Worker.PollIntervalSeconds) * time.Second,
	}
	app.dispatcher = task.NewDispatcher(app.taskStore, dispatcherConfig, app.logger)

	retry := generation.DefaultRetryPolicy()
	handlers := []task.Handler{
		task.NewTranscriptionHandler(app.lessonStore, transcriber, app.config.Storage.AudioDir),
		task.NewCorrectionHandler(app.lessonStore, corrector, retry),
		task.NewEditionHandler(app.lessonStore, editor, retry),
		task.NewSummaryHandler(app.lessonStore, summarizer, app.config.Summary, retry),
	}
	for _, h := range handlers {
		if err := app.dispatcher.Register(h); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", h.Type(), err)
		}
	}
	return nil
}

// Run starts the background dispatcher and the HTTP server, then blocks
// until shutdown.
func (app *application) Run(ctx context.Context) error {
	if err := app.dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start task dispatcher: %w", err)
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
