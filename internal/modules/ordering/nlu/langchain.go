package nlu

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type LangChainConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// NewLangChainModel builds an OpenAI-compatible langchaingo model.
func NewLangChainModel(cfg LangChainConfig) (llms.Model, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("langchain nlu: missing api key")
	}
	opts := []lcopenai.Option{lcopenai.WithToken(cfg.APIKey)}
	if m := strings.TrimSpace(cfg.Model); m != "" {
		opts = append(opts, lcopenai.WithModel(m))
	}
	if u := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); u != "" {
		if !strings.HasSuffix(u, "/v1") {
			u += "/v1"
		}
		opts = append(opts, lcopenai.WithBaseURL(u))
	}
	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain model: %w", err)
	}
	return llm, nil
}

// LangChain answers turns through any langchaingo chat model in JSON mode.
type LangChain struct {
	log         *logger.Logger
	model       llms.Model
	temperature float64
}

func NewLangChain(log *logger.Logger, model llms.Model, temperature float64) (*LangChain, error) {
	if log == nil || model == nil {
		return nil, fmt.Errorf("langchain nlu: missing deps")
	}
	return &LangChain{log: log.With("service", "LangChainNLU"), model: model, temperature: temperature}, nil
}

func (l *LangChain) messages(in steps.NLUInput) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPromptWithSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, UserPrompt(in)),
	}
}

func (l *LangChain) GenerateResponse(ctx context.Context, in steps.NLUInput) (steps.NLUOutput, error) {
	return l.generate(ctx, in, nil)
}

func (l *LangChain) Stream(ctx context.Context, in steps.NLUInput, onChunk func(string)) (steps.NLUOutput, error) {
	rs := newReplyStream(onChunk)
	return l.generate(ctx, in, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		rs.Write(string(chunk))
		return nil
	}))
}

func (l *LangChain) generate(ctx context.Context, in steps.NLUInput, extra llms.CallOption) (steps.NLUOutput, error) {
	opts := []llms.CallOption{
		llms.WithJSONMode(),
		llms.WithTemperature(l.temperature),
	}
	if extra != nil {
		opts = append(opts, extra)
	}
	resp, err := l.model.GenerateContent(ctx, l.messages(in), opts...)
	if err != nil {
		return steps.NLUOutput{}, fmt.Errorf("langchain generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return steps.NLUOutput{}, fmt.Errorf("empty response from langchain model")
	}
	text := resp.Choices[0].Content
	out, err := Decode(text)
	if err != nil {
		l.log.Warn("model response did not decode", "raw", text, "error", err)
		return steps.NLUOutput{}, err
	}
	return out, nil
}
