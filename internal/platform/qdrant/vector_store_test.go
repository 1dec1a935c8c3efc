package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/vectorstore"
)

type recordedRequest struct {
	Method string
	Path   string
	APIKey string
	Body   map[string]any
}

// fakeQdrant routes requests by "METHOD path" and records them.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]func(body map[string]any) (int, string)
}

func (f *fakeQdrant) RoundTrip(req *http.Request) (*http.Response, error) {
	var body map[string]any
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.RequestURI(), APIKey: req.Header.Get("api-key"), Body: body})
	h := f.handlers[req.Method+" "+req.URL.Path]
	f.mu.Unlock()

	status, payload := http.StatusNotFound, `{"status":{"error":"not found"}}`
	if h != nil {
		status, payload = h(body)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(payload)),
		Request:    req,
	}, nil
}

func (f *fakeQdrant) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func collectionOK(dim int, distance string) func(map[string]any) (int, string) {
	return func(map[string]any) (int, string) {
		b, _ := json.Marshal(map[string]any{
			"status": "ok",
			"result": map[string]any{"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": dim, "distance": distance}}}},
		})
		return http.StatusOK, string(b)
	}
}

func okResult(map[string]any) (int, string) { return http.StatusOK, `{"status":"ok","result":{"status":"acknowledged"}}` }

func testConfig() Config {
	return Config{URL: "http://qdrant:6333", APIKey: "secret", Collection: "menu_test", NamespacePrefix: "barista", VectorDim: 3}
}

func newStore(t *testing.T, fq *fakeQdrant, cfg Config) *VectorStore {
	t.Helper()
	s, err := NewVectorStore(context.Background(), logger.NewNop(), cfg, &http.Client{Transport: fq})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	return s
}

func TestNewVectorStoreValidatesConfig(t *testing.T) {
	_, err := NewVectorStore(context.Background(), logger.NewNop(), Config{}, nil)
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Code != ConfigErrorMissingURL {
		t.Fatalf("expected missing url config error, got %v", err)
	}
	_, err = NewVectorStore(context.Background(), logger.NewNop(), Config{URL: "qdrant:6333"}, nil)
	if !errors.As(err, &ce) || ce.Code != ConfigErrorInvalidURL {
		t.Fatalf("expected invalid url config error, got %v", err)
	}
}

func TestBootstrapRejectsDimensionMismatch(t *testing.T) {
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"GET /collections/menu_test": collectionOK(8, "Cosine"),
	}}
	_, err := NewVectorStore(context.Background(), logger.NewNop(), testConfig(), &http.Client{Transport: fq})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestBootstrapCreatesMissingCollection(t *testing.T) {
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"PUT /collections/menu_test": okResult,
	}}
	cfg := testConfig()
	cfg.CreateCollection = true
	newStore(t, fq, cfg)

	req := fq.last()
	if req.Method != http.MethodPut || req.APIKey != "secret" {
		t.Fatalf("unexpected create request %+v", req)
	}
	vectors, _ := req.Body["vectors"].(map[string]any)
	if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
		t.Fatalf("unexpected collection params %+v", req.Body)
	}

	cfg.CreateCollection = false
	fq2 := &fakeQdrant{}
	if _, err := NewVectorStore(context.Background(), logger.NewNop(), cfg, &http.Client{Transport: fq2}); err == nil {
		t.Fatalf("missing collection should fail without create_collection")
	}
}

func TestUpsertTagsNamespaceAndUsesStablePointIDs(t *testing.T) {
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"GET /collections/menu_test":        collectionOK(3, "Cosine"),
		"PUT /collections/menu_test/points": okResult,
	}}
	s := newStore(t, fq, testConfig())
	ctx := context.Background()

	vec := vectorstore.Vector{ID: "drink-1", Values: []float32{1, 0, 0}, Metadata: map[string]any{"name": "Latte"}}
	if err := s.Upsert(ctx, "menu", []vectorstore.Vector{vec}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	first := fq.last()
	if first.Path != "/collections/menu_test/points?wait=true" {
		t.Fatalf("unexpected path %q", first.Path)
	}
	points := first.Body["points"].([]any)
	p := points[0].(map[string]any)
	payload := p["payload"].(map[string]any)
	if payload[payloadNamespaceKey] != "barista:menu" || payload[payloadVectorIDKey] != "drink-1" || payload["name"] != "Latte" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	if err := s.Upsert(ctx, "menu", []vectorstore.Vector{vec}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	again := fq.last().Body["points"].([]any)[0].(map[string]any)
	if again["id"] != p["id"] {
		t.Fatalf("point id should be stable: %v vs %v", again["id"], p["id"])
	}

	err := s.Upsert(ctx, "menu", []vectorstore.Vector{{ID: "bad", Values: []float32{1}}})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("expected dimension validation error, got %v", err)
	}
}

func TestQueryMatchesBuildsFilterAndStripsInternalPayload(t *testing.T) {
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"GET /collections/menu_test": collectionOK(3, "Cosine"),
		"POST /collections/menu_test/points/search": func(map[string]any) (int, string) {
			return http.StatusOK, `{"status":"ok","result":[
				{"id":"p2","score":0.5,"payload":{"_barista_namespace":"barista:menu","_barista_vector_id":"drink-2","name":"Mocha"}},
				{"id":"p1","score":0.9,"payload":{"_barista_namespace":"barista:menu","_barista_vector_id":"drink-1","name":"Latte"}}
			]}`
		},
	}}
	s := newStore(t, fq, testConfig())

	got, err := s.QueryMatches(context.Background(), "menu", []float32{1, 0, 0}, 0, map[string]any{
		"category": "espresso",
		"name":     map[string]any{"$ne": "Americano"},
	})
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(got) != 2 || got[0].ID != "drink-1" || got[1].ID != "drink-2" {
		t.Fatalf("unexpected matches %+v", got)
	}
	if _, ok := got[0].Metadata[payloadNamespaceKey]; ok {
		t.Fatalf("internal payload keys must be stripped: %+v", got[0].Metadata)
	}
	if got[0].Metadata["name"] != "Latte" {
		t.Fatalf("metadata lost: %+v", got[0].Metadata)
	}

	req := fq.last()
	if req.Body["limit"] != float64(10) {
		t.Fatalf("topK should default to 10, got %v", req.Body["limit"])
	}
	filter := req.Body["filter"].(map[string]any)
	must := filter["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("expected namespace plus category conditions, got %+v", must)
	}
	if must[0].(map[string]any)["key"] != payloadNamespaceKey {
		t.Fatalf("namespace condition must come first: %+v", must)
	}
	if len(filter["must_not"].([]any)) != 1 {
		t.Fatalf("expected one must_not condition, got %+v", filter)
	}
}

func TestQueryMatchesRejectsBadInput(t *testing.T) {
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"GET /collections/menu_test": collectionOK(3, "Cosine"),
	}}
	s := newStore(t, fq, testConfig())
	ctx := context.Background()

	if _, err := s.QueryMatches(ctx, "menu", nil, 5, nil); err == nil {
		t.Fatalf("empty query should fail")
	}
	if _, err := s.QueryMatches(ctx, "menu", []float32{1, 0, 0}, 5, map[string]any{"$or": []any{}}); err == nil {
		t.Fatalf("top-level operator should be rejected")
	}
}

func TestQueryMatchesRetriesServerErrors(t *testing.T) {
	calls := 0
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"GET /collections/menu_test": collectionOK(3, "Cosine"),
		"POST /collections/menu_test/points/search": func(map[string]any) (int, string) {
			calls++
			if calls == 1 {
				return http.StatusServiceUnavailable, `{"status":{"error":"busy"}}`
			}
			return http.StatusOK, `{"status":"ok","result":[]}`
		},
	}}
	s := newStore(t, fq, testConfig())
	got, err := s.QueryMatches(context.Background(), "menu", []float32{0, 1, 0}, 3, nil)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if calls != 2 || len(got) != 0 {
		t.Fatalf("expected one retry and no matches, calls=%d got=%+v", calls, got)
	}
}

func TestDeleteIDsDeduplicates(t *testing.T) {
	fq := &fakeQdrant{handlers: map[string]func(map[string]any) (int, string){
		"GET /collections/menu_test":                collectionOK(3, "Cosine"),
		"POST /collections/menu_test/points/delete": okResult,
	}}
	s := newStore(t, fq, testConfig())
	if err := s.DeleteIDs(context.Background(), "menu", []string{"a", " a ", "", "b"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	points := fq.last().Body["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("expected 2 unique points, got %v", points)
	}

	before := len(fq.requests)
	if err := s.DeleteIDs(context.Background(), "menu", []string{" "}); err != nil {
		t.Fatalf("blank delete: %v", err)
	}
	if len(fq.requests) != before {
		t.Fatalf("blank delete should not hit qdrant")
	}
}

func TestNormalizeScore(t *testing.T) {
	s := &VectorStore{distance: "Euclid"}
	if got := s.normalizeScore(1); got != 0.5 {
		t.Fatalf("euclid score: %v", got)
	}
	s.distance = "Cosine"
	if got := s.normalizeScore(0.8); got != 0.8 {
		t.Fatalf("cosine score: %v", got)
	}
}
