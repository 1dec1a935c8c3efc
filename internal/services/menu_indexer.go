package services

import (
	"context"
	"fmt"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/vectorstore"
)

const indexBatchSize = 64

// MenuIndexer embeds every drink and writes one vector per drink into MenuNamespace.
type MenuIndexer struct {
	log      *logger.Logger
	embedder Embedder
	vectors  vectorstore.VectorStore
	menu     MenuService
}

func NewMenuIndexer(log *logger.Logger, embedder Embedder, vectors vectorstore.VectorStore, menu MenuService) *MenuIndexer {
	return &MenuIndexer{
		log:      log.With("service", "MenuIndexer"),
		embedder: embedder,
		vectors:  vectors,
		menu:     menu,
	}
}

// IndexAll returns the number of drinks indexed.
func (ix *MenuIndexer) IndexAll(ctx context.Context) (int, error) {
	drinks, err := ix.menu.FindAll(dbctx.New(ctx))
	if err != nil {
		return 0, err
	}
	return ix.Index(ctx, drinks)
}

func (ix *MenuIndexer) Index(ctx context.Context, drinks []*types.Drink) (int, error) {
	indexed := 0
	for start := 0; start < len(drinks); start += indexBatchSize {
		end := min(start+indexBatchSize, len(drinks))
		batch := drinks[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.EmbeddingText()
		}
		embs, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embed drinks %d-%d: %w", start, end, err)
		}
		if len(embs) != len(batch) {
			return indexed, fmt.Errorf("embed drinks %d-%d: got %d embeddings", start, end, len(embs))
		}

		vecs := make([]vectorstore.Vector, len(batch))
		for i, d := range batch {
			vecs[i] = vectorstore.Vector{
				ID:     d.ID.String(),
				Values: embs[i],
				Metadata: map[string]any{
					"name":         d.Name,
					"price_amount": d.PriceAmount,
					"currency":     d.Currency,
				},
			}
		}
		if err := ix.vectors.Upsert(ctx, MenuNamespace, vecs); err != nil {
			return indexed, fmt.Errorf("upsert drink vectors: %w", err)
		}
		indexed += len(batch)
	}
	ix.log.Info("menu indexed", "drinks", indexed, "namespace", MenuNamespace)
	return indexed, nil
}
