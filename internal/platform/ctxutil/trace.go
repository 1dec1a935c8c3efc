package ctxutil

import (
	"context"
	"sync"
)

type traceDataKey struct{}

// TraceData is the per-request correlation state shared by middleware,
// handlers and outbound clients. ConversationID is filled in once a turn
// has resolved its conversation.
type TraceData struct {
	TraceID   string
	RequestID string

	mu             sync.Mutex
	conversationID string
}

func (t *TraceData) SetConversationID(id string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.conversationID = id
	t.mu.Unlock()
}

func (t *TraceData) ConversationID() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conversationID
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
