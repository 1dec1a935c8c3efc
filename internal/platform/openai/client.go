package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/barista-backend/internal/platform/ctxutil"
	"github.com/yungbote/barista-backend/internal/platform/httpx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

// Client is the subset of the OpenAI API the barista uses: structured replies
// through the Responses API and embeddings for menu search.
type Client interface {
	Model() string
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (string, error)
	// StreamJSON forwards raw output_text deltas of a json_schema response and returns the full text.
	StreamJSON(ctx context.Context, system, user, schemaName string, schema map[string]any, onDelta func(string)) (string, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	EmbedModel  string        `yaml:"embed_model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	Temperature *float64      `yaml:"temperature"`
	// HTTPClient overrides the transport; tests inject a fake RoundTripper here.
	HTTPClient *http.Client `yaml:"-"`
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = "https://api.openai.com"
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "gpt-4o-mini"
	}
	if strings.TrimSpace(c.EmbedModel) == "" {
		c.EmbedModel = "text-embedding-3-small"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client

	// Models that rejected temperature once are remembered and sent without it.
	noTempMu sync.RWMutex
	noTemp   map[string]bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg = cfg.withDefaults()
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		cfg:        cfg,
		httpClient: hc,
		noTemp:     map[string]bool{},
	}, nil
}

func (c *client) Model() string { return c.cfg.Model }

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func isUnsupportedTemperature(msg string) bool {
	msg = strings.ToLower(msg)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, hint := range []string{"unsupported parameter", "unknown parameter", "not supported", "does not support", "only the default", "unsupported_value"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func (c *client) applyTemperature(req *responsesRequest) {
	if c.cfg.Temperature == nil {
		return
	}
	c.noTempMu.RLock()
	skip := c.noTemp[strings.ToLower(req.Model)]
	c.noTempMu.RUnlock()
	if !skip {
		req.Temperature = c.cfg.Temperature
	}
}

func (c *client) noteNoTemp(model string) {
	c.noTempMu.Lock()
	c.noTemp[strings.ToLower(model)] = true
	c.noTempMu.Unlock()
	c.log.Info("model rejected temperature; omitting it from now on", "model", model)
}

func (c *client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Client-Request-Id", td.RequestID)
	}
	return req, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	policy := httpx.RetryPolicy{MaxAttempts: c.cfg.MaxRetries + 1, BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}
	return httpx.Retry(ctx, policy, func(attempt int) error {
		raw, err := c.doOnce(ctx, method, path, body)
		if err != nil {
			if httpx.IsRetryableError(err) && attempt <= c.cfg.MaxRetries {
				c.log.Warn("OpenAI request retrying", "path", path, "attempt", attempt, "error", err.Error())
			}
			return err
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("openai decode error: %w", err)
		}
		return nil
	})
}

// -------------------- Responses API --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

func extractOutputText(resp responsesResponse) (string, string) {
	var out, refusal strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				refusal.WriteString(c.Refusal)
			}
		}
	}
	return out.String(), refusal.String()
}

func (c *client) jsonRequest(system, user, schemaName string, schema map[string]any, stream bool) (responsesRequest, error) {
	if schemaName == "" {
		return responsesRequest{}, errors.New("schemaName required")
	}
	if schema == nil {
		return responsesRequest{}, errors.New("schema required")
	}
	req := responsesRequest{
		Model: c.cfg.Model,
		Input: []inputMessage{
			{Role: "system", Content: strings.TrimSpace(system)},
			{Role: "user", Content: user},
		},
		Stream: stream,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}
	c.applyTemperature(&req)
	return req, nil
}

func (c *client) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (string, error) {
	req, err := c.jsonRequest(system, user, schemaName, schema, false)
	if err != nil {
		return "", err
	}
	var resp responsesResponse
	err = c.do(ctx, http.MethodPost, "/v1/responses", &req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err.Error()) {
		c.noteNoTemp(req.Model)
		req.Temperature = nil
		err = c.do(ctx, http.MethodPost, "/v1/responses", &req, &resp)
	}
	if err != nil {
		return "", err
	}
	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return "", fmt.Errorf("model refused: %s", refusal)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) openStream(ctx context.Context, body responsesRequest) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return nil, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
}

func (c *client) StreamJSON(ctx context.Context, system, user, schemaName string, schema map[string]any, onDelta func(string)) (string, error) {
	body, err := c.jsonRequest(system, user, schemaName, schema, true)
	if err != nil {
		return "", err
	}
	// Only the connect is retried; once deltas flow a failure is final.
	var resp *http.Response
	policy := httpx.RetryPolicy{MaxAttempts: c.cfg.MaxRetries + 1, BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}
	err = httpx.Retry(ctx, policy, func(int) error {
		var openErr error
		resp, openErr = c.openStream(ctx, body)
		if openErr != nil && body.Temperature != nil && isUnsupportedTemperature(openErr.Error()) {
			c.noteNoTemp(body.Model)
			body.Temperature = nil
			resp, openErr = c.openStream(ctx, body)
		}
		return openErr
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = streamSSE(resp.Body, func(event, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var evt struct {
			Type    string          `json:"type"`
			Delta   string          `json:"delta"`
			Refusal string          `json:"refusal"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return nil
		}
		if evt.Type == "" {
			evt.Type = event
		}
		switch {
		case len(evt.Error) > 0 && string(evt.Error) != "null":
			return fmt.Errorf("openai stream error: %s", string(evt.Error))
		case strings.Contains(evt.Type, "refusal.delta"), evt.Refusal != "":
			return fmt.Errorf("model refused: %s", evt.Refusal+evt.Delta)
		case strings.Contains(evt.Type, "output_text.delta") && evt.Delta != "":
			full.WriteString(evt.Delta)
			if onDelta != nil {
				onDelta(evt.Delta)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", fmt.Errorf("no output_text found in stream")
	}
	return full.String(), nil
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", embeddingsRequest{Model: c.cfg.EmbedModel, Input: clean}, &resp); err != nil {
		return nil, err
	}
	out := make([][]float32, len(clean))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = i
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("openai embeddings missing index %d: requested=%d returned=%d model=%s", i, len(clean), len(resp.Data), c.cfg.EmbedModel)
		}
	}
	return out, nil
}
