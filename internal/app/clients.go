package app

import (
	"context"
	"fmt"

	redisclient "github.com/yungbote/barista-backend/internal/clients/redis"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/openai"
	"github.com/yungbote/barista-backend/internal/platform/vectorstore"
)

type Clients struct {
	OpenAI  openai.Client
	Redis   redisclient.TurnCache
	Vectors vectorstore.VectorStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	// OpenAI
	ocfg := cfg.OpenAI
	if ocfg.Temperature == nil {
		t := cfg.NLU.Temperature
		ocfg.Temperature = &t
	}
	oc, err := openai.NewClient(log, ocfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Redis (optional)
	var cache redisclient.TurnCache
	if cfg.Redis.Addr != "" {
		cache, err = redisclient.NewTurnCache(ctx, log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis turn cache: %w", err)
		}
	}

	// Vector store
	vs, err := resolveVectorStore(ctx, log, cfg.Vector, metrics)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return Clients{}, err
	}

	return Clients{OpenAI: oc, Redis: cache, Vectors: vs}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
