package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/handlers"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/notion"
	"github.com/ternarybob/curator/internal/services/llm"
	"github.com/ternarybob/curator/internal/services/search"
	"github.com/ternarybob/curator/internal/services/workflow"
	"github.com/ternarybob/curator/internal/services/workspace"
	"github.com/ternarybob/curator/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	NotionAPI interfaces.NotionAPI
	Workspace interfaces.WorkspaceService
	Provider  llm.Provider
	LLM       interfaces.LLMService
	Search    interfaces.SearchService
	RunStore  interfaces.RunStore
	Workflow  *workflow.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	DatabaseHandler *handlers.DatabaseHandler
	RunHandler      *handlers.RunHandler

	cron *cron.Cron
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.initHandlers()

	logger.Info().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Bool("search_augmentation", cfg.Search.Enabled && cfg.Workflow.SearchAugmentation).
		Bool("classify_categories", cfg.Workflow.ClassifyCategories).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initServices() error {
	client := notion.NewClientFromConfig(&a.Config.Notion)
	a.NotionAPI = client
	a.Workspace = workspace.NewRepository(client, &a.Config.Workspace, a.Logger)

	provider, err := llm.NewProvider(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	a.Provider = provider

	sink := llm.NewFileSink(a.Config.LLM.DumpDir)
	var opts []llm.ServiceOption
	// prompts get web-search context only when the search backend is
	// enabled and the workflow opts in
	if a.Config.Search.Enabled && a.Config.Workflow.SearchAugmentation {
		a.Search = search.NewSearxService(&a.Config.Search)
		opts = append(opts, llm.WithSearchAugmentation(a.Search, &a.Config.Search))
	}
	a.LLM = llm.NewService(provider, sink, a.Logger, opts...)

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	a.RunStore = badger.NewRunStorage(db, a.Logger)

	a.Workflow = workflow.NewService(a.Workspace, a.LLM, a.RunStore, a.Config, a.Logger)

	a.Logger.Debug().
		Str("ledger_path", a.Config.Storage.Badger.Path).
		Msg("Services initialized")
	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.DatabaseHandler = handlers.NewDatabaseHandler(a.NotionAPI, &a.Config.Workspace, a.Logger)
	a.RunHandler = handlers.NewRunHandler(a.Workflow, a.RunStore, a.Logger)
}

// StartSchedule registers the periodic reconciliation run when a cron
// schedule is configured. A run still in flight skips the next trigger
// instead of overlapping it.
func (a *App) StartSchedule() error {
	if a.Config.Workflow.Schedule == "" {
		return nil
	}

	a.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := a.cron.AddFunc(a.Config.Workflow.Schedule, func() {
		ctx := context.Background()
		runID, failed, err := a.Workflow.Run(ctx)
		if err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled reconciliation run failed")
			return
		}
		a.Logger.Info().
			Str("run_id", runID).
			Int("failed", failed).
			Msg("Scheduled reconciliation run finished")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.Config.Workflow.Schedule, err)
	}

	a.cron.Start()
	a.Logger.Info().Str("schedule", a.Config.Workflow.Schedule).Msg("Reconciliation schedule started")
	return nil
}

// Close releases all resources: the cron scheduler, the LLM provider
// and the run ledger.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}
	if a.RunStore != nil {
		if err := a.RunStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close run ledger")
		}
	}
}
