package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/qdrant"
	"github.com/yungbote/barista-backend/internal/platform/vectorstore"
)

var newQdrantVectorStore = func(ctx context.Context, log *logger.Logger, cfg qdrant.Config) (vectorstore.VectorStore, error) {
	return qdrant.NewVectorStore(ctx, log, cfg, nil)
}

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorInvalidConfig   VectorProviderBootstrapErrorCode = "invalid_config"
	VectorProviderBootstrapErrorConnectFailed   VectorProviderBootstrapErrorCode = "connect_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveVectorStore(ctx context.Context, log *logger.Logger, cfg VectorConfig, metrics *observability.Metrics) (vectorstore.VectorStore, error) {
	switch cfg.Provider {
	case VectorProviderMemory:
		log.Info("Selecting vector store provider", "provider", cfg.Provider)
		return instrumentVectorStore(cfg.Provider, vectorstore.NewMemory(), metrics), nil
	case VectorProviderQdrant:
		log.Info("Selecting vector store provider",
			"provider", cfg.Provider,
			"qdrant_url", cfg.Qdrant.URL,
			"qdrant_collection", cfg.Qdrant.Collection,
			"qdrant_vector_dim", cfg.Qdrant.VectorDim,
		)
		vs, err := newQdrantVectorStore(ctx, log, cfg.Qdrant)
		if err != nil {
			classified := classifyVectorProviderBootstrapError(cfg.Provider, err)
			log.Error("Vector store provider bootstrap failed", "provider", cfg.Provider, "error", classified)
			return nil, classified
		}
		return instrumentVectorStore(cfg.Provider, vs, metrics), nil
	default:
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: cfg.Provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", cfg.Provider),
		}
	}
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var cerr *qdrant.ConfigError
	if errors.As(err, &cerr) {
		return &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorInvalidConfig, Provider: provider, Cause: err}
	}
	return &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorConnectFailed, Provider: provider, Cause: err}
}
