package vectorstore

import (
	"context"
	"math"
	"testing"
)

func TestMemoryQueryOrdersByCosine(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	err := m.Upsert(ctx, "menu", []Vector{
		{ID: "latte", Values: []float32{1, 0}, Metadata: map[string]any{"kind": "drink"}},
		{ID: "mocha", Values: []float32{0.7, 0.7}, Metadata: map[string]any{"kind": "drink"}},
		{ID: "croissant", Values: []float32{0, 1}, Metadata: map[string]any{"kind": "food"}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := m.QueryMatches(ctx, "menu", []float32{1, 0.1}, 2, nil)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(got) != 2 || got[0].ID != "latte" || got[1].ID != "mocha" {
		t.Fatalf("unexpected matches %+v", got)
	}

	got, _ = m.QueryMatches(ctx, "menu", []float32{0, 1}, 5, map[string]any{"kind": "drink"})
	if len(got) != 2 || got[0].ID != "mocha" {
		t.Fatalf("filter should drop food, got %+v", got)
	}

	if got, _ := m.QueryMatches(ctx, "other", []float32{1, 0}, 5, nil); len(got) != 0 {
		t.Fatalf("namespaces must be isolated")
	}

	_ = m.DeleteIDs(ctx, "menu", []string{"latte"})
	got, _ = m.QueryMatches(ctx, "menu", []float32{1, 0}, 5, nil)
	if len(got) != 2 || got[0].ID == "latte" {
		t.Fatalf("deleted vector still returned: %+v", got)
	}
}

func TestMemoryValidation(t *testing.T) {
	m := NewMemory()
	if err := m.Upsert(context.Background(), "ns", []Vector{{ID: " ", Values: []float32{1}}}); err == nil {
		t.Fatalf("expected id error")
	}
	if err := m.Upsert(context.Background(), "ns", []Vector{{ID: "a"}}); err == nil {
		t.Fatalf("expected empty values error")
	}
	if _, err := m.QueryMatches(context.Background(), "ns", nil, 1, nil); err == nil {
		t.Fatalf("expected empty query error")
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 2}, []float32{2, 4}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("parallel vectors: got %v", got)
	}
	if Cosine([]float32{0, 0}, []float32{1, 1}) != 0 || Cosine([]float32{1}, []float32{1, 2}) != 0 {
		t.Fatalf("degenerate inputs should score 0")
	}
}
