package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/qdrant"
	"github.com/yungbote/barista-backend/internal/platform/vectorstore"
)

func TestResolveVectorStoreMemory(t *testing.T) {
	vs, err := resolveVectorStore(context.Background(), logger.NewNop(), VectorConfig{Provider: VectorProviderMemory}, nil)
	if err != nil {
		t.Fatalf("resolveVectorStore: %v", err)
	}
	if _, ok := vs.(*vectorstore.Memory); !ok {
		t.Fatalf("expected bare memory store without metrics, got %T", vs)
	}

	m := observability.New(prometheus.NewRegistry())
	vs, _ = resolveVectorStore(context.Background(), logger.NewNop(), VectorConfig{Provider: VectorProviderMemory}, m)
	if _, ok := vs.(*instrumentedVectorStore); !ok {
		t.Fatalf("expected instrumented store, got %T", vs)
	}
}

func TestResolveVectorStoreQdrantErrors(t *testing.T) {
	orig := newQdrantVectorStore
	t.Cleanup(func() { newQdrantVectorStore = orig })

	newQdrantVectorStore = func(context.Context, *logger.Logger, qdrant.Config) (vectorstore.VectorStore, error) {
		return nil, &qdrant.ConfigError{Code: qdrant.ConfigErrorMissingURL}
	}
	_, err := resolveVectorStore(context.Background(), logger.NewNop(), VectorConfig{Provider: VectorProviderQdrant}, nil)
	var be *VectorProviderBootstrapError
	if !errors.As(err, &be) || be.Code != VectorProviderBootstrapErrorInvalidConfig {
		t.Fatalf("expected invalid_config, got %v", err)
	}

	newQdrantVectorStore = func(context.Context, *logger.Logger, qdrant.Config) (vectorstore.VectorStore, error) {
		return nil, errors.New("dial tcp: refused")
	}
	_, err = resolveVectorStore(context.Background(), logger.NewNop(), VectorConfig{Provider: VectorProviderQdrant}, nil)
	if !errors.As(err, &be) || be.Code != VectorProviderBootstrapErrorConnectFailed {
		t.Fatalf("expected connect_failed, got %v", err)
	}

	_, err = resolveVectorStore(context.Background(), logger.NewNop(), VectorConfig{Provider: "pinecone"}, nil)
	if !errors.As(err, &be) || be.Code != VectorProviderBootstrapErrorInvalidProvider {
		t.Fatalf("expected invalid_provider, got %v", err)
	}
}

type failingStore struct{ vectorstore.VectorStore }

func (failingStore) DeleteIDs(context.Context, string, []string) error { return errors.New("nope") }

func TestInstrumentedVectorStoreObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.New(reg)
	vs := instrumentVectorStore("memory", failingStore{vectorstore.NewMemory()}, m)
	ctx := context.Background()

	if err := vs.Upsert(ctx, "menu", []vectorstore.Vector{{ID: "a", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got, err := vs.QueryMatches(ctx, "menu", []float32{1, 0}, 1, nil); err != nil || len(got) != 1 {
		t.Fatalf("QueryMatches: %v %v", got, err)
	}
	if err := vs.DeleteIDs(ctx, "menu", []string{"a"}); err == nil {
		t.Fatalf("expected delete error to pass through")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	statuses := map[string]string{}
	for _, f := range families {
		if f.GetName() != "barista_vector_store_operation_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			statuses[labels["operation"]] = labels["status"]
		}
	}
	if statuses["upsert"] != "success" || statuses["query_matches"] != "success" || statuses["delete_ids"] != "error" {
		t.Fatalf("unexpected observations %v", statuses)
	}
}
