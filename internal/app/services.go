package app

import (
	"fmt"

	"github.com/yungbote/barista-backend/internal/modules/ordering"
	"github.com/yungbote/barista-backend/internal/modules/ordering/nlu"
	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/services"
)

type Services struct {
	Menu     services.MenuService
	Search   steps.SemanticSearch
	Indexer  *services.MenuIndexer
	Cache    steps.TurnCache
	NLU      steps.NLU
	Ordering ordering.Usecases
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	menu := services.NewMenuService(log, reposet.Drink, cfg.Ordering.CatalogTTL)
	search := services.NewSemanticSearch(log, clients.OpenAI, clients.Vectors, menu)
	indexer := services.NewMenuIndexer(log, clients.OpenAI, clients.Vectors, menu)

	var cache steps.TurnCache = services.NewMemoryTurnCache(cfg.Redis.TTL)
	if clients.Redis != nil {
		cache = clients.Redis
	}

	model, err := wireNLU(log, cfg, clients)
	if err != nil {
		return Services{}, err
	}

	uc := ordering.New(ordering.UsecasesDeps{
		Log:           log,
		Conversations: reposet.Conversation,
		Orders:        reposet.Order,
		Menu:          menu,
		NLU:           model,
		NLUProvider:   cfg.NLU.Provider,
		Search:        search,
		Cache:         cache,
		Metrics:       metrics,
		Limits:        cfg.Ordering.Limits,
		RAGLimit:      cfg.Ordering.RAGLimit,
		HistoryWindow: cfg.Ordering.HistoryWindow,
	})

	return Services{
		Menu:     menu,
		Search:   search,
		Indexer:  indexer,
		Cache:    cache,
		NLU:      model,
		Ordering: uc,
	}, nil
}

func wireNLU(log *logger.Logger, cfg Config, clients Clients) (steps.NLU, error) {
	switch cfg.NLU.Provider {
	case NLUProviderLangChain:
		model, err := nlu.NewLangChainModel(nlu.LangChainConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.NLU.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("init langchain model: %w", err)
		}
		return nlu.NewLangChain(log, model, cfg.NLU.Temperature)
	default:
		return nlu.NewOpenAI(log, clients.OpenAI)
	}
}
