package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"insulight/internal/artifact"
	"insulight/internal/config"
	"insulight/internal/identity"
	"insulight/internal/insight/archive"
	"insulight/internal/llm"
	"insulight/internal/profile"
)

type appStores struct {
	archive   archive.Store
	profiles  profile.Store
	artifacts artifact.Store
	verifier  identity.Verifier

	closers []func() error
}

func (s *appStores) close() error {
	for _, fn := range s.closers {
		_ = fn()
	}
	return nil
}

// initStores picks the archive/profile backend: postgres when DATABASE_URL
// is set, an embedded sqlite file when SQLITE_PATH is set, in-memory
// otherwise. List reads go through an LRU cache in every case.
func initStores(cfg *config.Config) (*appStores, error) {
	stores := &appStores{
		artifacts: newArtifactStore(cfg),
		verifier:  identity.NewStaticVerifierFromEnv(cfg.SessionTokens),
	}

	switch {
	case cfg.DatabaseURL != "":
		sqlStore, err := archive.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres archive: %w", err)
		}
		log.Printf("archive store: postgres")
		stores.archive = sqlStore
		stores.profiles = profile.NewSQLStore(sqlStore.DB())
		stores.closers = append(stores.closers, sqlStore.Close)
	case cfg.SQLitePath != "":
		sqlStore, err := archive.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite archive: %w", err)
		}
		log.Printf("archive store: sqlite path=%s", cfg.SQLitePath)
		stores.archive = sqlStore
		stores.profiles = profile.NewSQLStore(sqlStore.DB())
		stores.closers = append(stores.closers, sqlStore.Close)
	default:
		log.Printf("archive store: in-memory")
		stores.archive = archive.NewMemoryStore()
		stores.profiles = profile.NewMemoryStore()
	}

	cached, err := archive.NewCachedStore(stores.archive, 1024)
	if err != nil {
		stores.close()
		return nil, err
	}
	stores.archive = cached
	return stores, nil
}

func newArtifactStore(cfg *config.Config) artifact.Store {
	if !cfg.Artifact.Enabled {
		return artifact.NoopStore{}
	}
	s3Store, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	})
	if err != nil {
		log.Printf("artifact store disabled: %v", err)
		return artifact.NoopStore{}
	}
	log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Artifact.Bucket, cfg.Artifact.Endpoint)
	return s3Store
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	case "openai":
		return llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	case "fake":
		return llm.NewFakeClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}
