package app

import (
	"context"
	"fmt"

	"insulight/internal/config"
	"insulight/internal/handler"
	"insulight/internal/insight"
	"insulight/internal/server"
)

type App struct {
	server  *server.Server
	cleanup []func() error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		stores.close()
		return nil, fmt.Errorf("failed to init completion client: %w", err)
	}

	orchestrator := insight.NewOrchestrator(client, stores.archive, stores.artifacts, cfg.LLM.Timeout)

	insightsHandler := handler.NewInsightsHandler(orchestrator, stores.profiles)
	archiveHandler := handler.NewArchiveHandler(stores.archive)
	previewHandler := handler.NewPreviewHandler()

	mux := server.NewMux(stores.verifier, insightsHandler, archiveHandler, previewHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server:  srv,
		cleanup: []func() error{client.Close, stores.close},
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	for _, fn := range a.cleanup {
		_ = fn()
	}
	return err
}
