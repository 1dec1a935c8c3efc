package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorStore is a namespaced similarity index. Scores are higher-is-better.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// QueryMatches returns at most topK matches. filter keys match metadata values exactly.
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

// Memory is an in-process cosine index for development and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Vector
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]Vector{}}
}

func (m *Memory) Upsert(_ context.Context, namespace string, vectors []Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := m.data[namespace]
	if ns == nil {
		ns = map[string]Vector{}
		m.data[namespace] = ns
	}
	for _, v := range vectors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return fmt.Errorf("vector id is required")
		}
		if len(v.Values) == 0 {
			return fmt.Errorf("vector %q has empty values", id)
		}
		meta := make(map[string]any, len(v.Metadata))
		for k, val := range v.Metadata {
			meta[k] = val
		}
		ns[id] = Vector{ID: id, Values: append([]float32(nil), v.Values...), Metadata: meta}
	}
	return nil
}

func (m *Memory) QueryMatches(_ context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if topK <= 0 {
		topK = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]VectorMatch, 0, len(m.data[namespace]))
	for _, v := range m.data[namespace] {
		if len(v.Values) != len(q) || !matchesFilter(v.Metadata, filter) {
			continue
		}
		out = append(out, VectorMatch{ID: v.ID, Score: Cosine(q, v.Values), Metadata: v.Metadata})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *Memory) DeleteIDs(_ context.Context, namespace string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.data[namespace], strings.TrimSpace(id))
	}
	return nil
}

func matchesFilter(meta, filter map[string]any) bool {
	for k, want := range filter {
		if fmt.Sprint(meta[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
