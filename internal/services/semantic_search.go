package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/vectorstore"
)

// MenuNamespace is the vector namespace holding one vector per drink.
const MenuNamespace = "menu"

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type semanticSearch struct {
	log      *logger.Logger
	embedder Embedder
	vectors  vectorstore.VectorStore
	menu     MenuService
}

func NewSemanticSearch(log *logger.Logger, embedder Embedder, vectors vectorstore.VectorStore, menu MenuService) steps.SemanticSearch {
	return &semanticSearch{
		log:      log.With("service", "SemanticSearch"),
		embedder: embedder,
		vectors:  vectors,
		menu:     menu,
	}
}

// FindSimilar returns drinks ordered by descending similarity. Vectors whose drink
// no longer exists are skipped.
func (s *semanticSearch) FindSimilar(ctx context.Context, text string, limit int) (out []steps.DrinkMatch, err error) {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return nil, nil
	}
	ctx, span := observability.StartSpan(ctx, "menu.semantic_search", attribute.Int("limit", limit))
	defer func() { observability.EndSpan(span, err) }()

	embs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embs) != 1 || len(embs[0]) == 0 {
		return nil, fmt.Errorf("embed query: empty embedding")
	}

	matches, err := s.vectors.QueryMatches(ctx, MenuNamespace, embs[0], limit, nil)
	if err != nil {
		return nil, fmt.Errorf("query menu vectors: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		id, perr := uuid.Parse(m.ID)
		if perr != nil {
			s.log.Warn("skipping vector with non-uuid id", "vector_id", m.ID)
			continue
		}
		ids = append(ids, id)
	}
	drinks, err := s.menu.FindByIDs(dbctx.New(ctx), ids)
	if err != nil {
		return nil, fmt.Errorf("load matched drinks: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Drink, len(drinks))
	for _, d := range drinks {
		byID[d.ID] = d
	}

	out = make([]steps.DrinkMatch, 0, len(matches))
	for _, m := range matches {
		id, perr := uuid.Parse(m.ID)
		if perr != nil {
			continue
		}
		d := byID[id]
		if d == nil {
			s.log.Debug("vector refers to missing drink", "drink_id", id)
			continue
		}
		out = append(out, steps.DrinkMatch{Drink: d, Score: m.Score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
