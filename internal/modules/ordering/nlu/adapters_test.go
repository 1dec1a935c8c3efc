package nlu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

const greetingJSON = `{"reply":"Hello! What can I get you?","intent":"greeting","suggested_actions":[],"extracted_order":null}`

type fakeClient struct {
	text    string
	err     error
	schemas []string
	users   []string
}

func (f *fakeClient) Model() string { return "fake" }

func (f *fakeClient) GenerateJSON(_ context.Context, _, user, name string, _ map[string]any) (string, error) {
	f.schemas = append(f.schemas, name)
	f.users = append(f.users, user)
	return f.text, f.err
}

func (f *fakeClient) StreamJSON(_ context.Context, _, user, name string, _ map[string]any, onDelta func(string)) (string, error) {
	f.schemas = append(f.schemas, name)
	f.users = append(f.users, user)
	if f.err != nil {
		return "", f.err
	}
	for _, part := range splitEvery(f.text, 5) {
		onDelta(part)
	}
	return f.text, nil
}

func (f *fakeClient) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }

func TestOpenAIAdapter(t *testing.T) {
	fc := &fakeClient{text: greetingJSON}
	n, err := NewOpenAI(logger.NewNop(), fc)
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	in := steps.NLUInput{UserMessage: "hello"}

	out, err := n.GenerateResponse(context.Background(), in)
	if err != nil || out.Intent != steps.IntentGreeting {
		t.Fatalf("unexpected %+v %v", out, err)
	}

	var chunks []string
	out, err = n.Stream(context.Background(), in, func(c string) { chunks = append(chunks, c) })
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if strings.Join(chunks, "") != out.Reply || len(chunks) < 2 {
		t.Fatalf("expected reply streamed in pieces, got %q", chunks)
	}
	if fc.schemas[0] != SchemaName || !strings.HasSuffix(fc.users[0], "User: hello") {
		t.Fatalf("unexpected request %v %v", fc.schemas, fc.users)
	}

	fc.text = "garbage"
	if _, err := n.GenerateResponse(context.Background(), in); err == nil {
		t.Fatalf("expected decode error")
	}
	fc.err = errors.New("upstream down")
	if _, err := n.Stream(context.Background(), in, func(string) {}); err == nil {
		t.Fatalf("expected upstream error")
	}
}

type fakeModel struct {
	content string
	err     error
	opts    llms.CallOptions
	msgs    []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.msgs = msgs
	f.opts = llms.CallOptions{}
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.opts.StreamingFunc != nil {
		for _, part := range splitEvery(f.content, 4) {
			if err := f.opts.StreamingFunc(ctx, []byte(part)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChainAdapter(t *testing.T) {
	fm := &fakeModel{content: "```json\n" + greetingJSON + "\n```"}
	n, err := NewLangChain(logger.NewNop(), fm, 0.2)
	if err != nil {
		t.Fatalf("NewLangChain: %v", err)
	}
	out, err := n.GenerateResponse(context.Background(), steps.NLUInput{UserMessage: "hi"})
	if err != nil || out.Intent != steps.IntentGreeting {
		t.Fatalf("unexpected %+v %v", out, err)
	}
	if !fm.opts.JSONMode || fm.opts.StreamingFunc != nil {
		t.Fatalf("expected JSON mode without streaming, got %+v", fm.opts)
	}
	if len(fm.msgs) != 2 || fm.msgs[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("unexpected messages %+v", fm.msgs)
	}

	var streamed strings.Builder
	out, err = n.Stream(context.Background(), steps.NLUInput{UserMessage: "hi"}, func(c string) { streamed.WriteString(c) })
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if streamed.String() != out.Reply {
		t.Fatalf("streamed %q, reply %q", streamed.String(), out.Reply)
	}

	fm.err = errors.New("rate limited")
	if _, err := n.GenerateResponse(context.Background(), steps.NLUInput{UserMessage: "hi"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewLangChainModelRequiresKey(t *testing.T) {
	if _, err := NewLangChainModel(LangChainConfig{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
