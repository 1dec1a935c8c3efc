package steps

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/ctxutil"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/envutil"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

const (
	maxMessageRunes      = 2000
	defaultRAGLimit      = 5
	defaultHistoryWindow = 10
)

type TurnDeps struct {
	Log *logger.Logger

	Conversations ConversationStore
	Orders        OrderStore
	Menu          MenuStore
	Search        SemanticSearch
	NLU           NLU
	// Cache is optional.
	Cache TurnCache

	NLUProvider string
	Metrics     *observability.Metrics
	Limits      types.Limits
	// RAGLimit is clamped to [3, 5]; HistoryWindow to [6, 10].
	RAGLimit      int
	HistoryWindow int
}

type TurnInput struct {
	Message        string
	ConversationID *uuid.UUID
}

type TurnOutput struct {
	Reply          string        `json:"reply"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	Intent         Intent        `json:"intent"`
	Order          *OrderSummary `json:"order"`
	QuickReplies   []string      `json:"quick_replies"`
}

// ProcessTurn runs one dialogue turn. Exactly one of the returned values is
// meaningful: on error the output is the zero value and err is a *TurnError.
func ProcessTurn(ctx context.Context, deps TurnDeps, in TurnInput) (TurnOutput, error) {
	return runTurn(ctx, deps, in, nil)
}

// StreamTurn is ProcessTurn with reply chunks forwarded to onChunk while the NLU
// port generates them. The returned output carries the complete reply.
func StreamTurn(ctx context.Context, deps TurnDeps, in TurnInput, onChunk func(string)) (TurnOutput, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}
	return runTurn(ctx, deps, in, onChunk)
}

func runTurn(ctx context.Context, deps TurnDeps, in TurnInput, onChunk func(string)) (out TurnOutput, err error) {
	start := time.Now()
	mode := "sync"
	if onChunk != nil {
		mode = "stream"
	}
	ctx, span := observability.StartSpan(ctx, "ordering.turn", attribute.String("turn.mode", mode))
	defer func() {
		if r := recover(); r != nil {
			out, err = TurnOutput{}, newTurnError(KindUnexpected, fmt.Errorf("panic: %v", r))
		}
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
			out = TurnOutput{}
		}
		observability.EndSpan(span, err)
		deps.Metrics.ObserveTurn(mode, string(out.Intent), outcome, time.Since(start))
	}()

	t, err := newTurn(deps)
	if err != nil {
		return TurnOutput{}, newTurnError(KindUnexpected, err)
	}
	return t.run(ctx, in, onChunk)
}

type turn struct {
	deps     TurnDeps
	limits   types.Limits
	log      *logger.Logger
	resolver *DrinkResolver
}

func newTurn(deps TurnDeps) (*turn, error) {
	if deps.Log == nil || deps.Conversations == nil || deps.Orders == nil || deps.NLU == nil {
		return nil, fmt.Errorf("ordering turn: missing deps")
	}
	log := deps.Log.With("step", "Turn")
	r := &DrinkResolver{Menu: deps.Menu, Search: deps.Search, Log: deps.Log.With("step", "DrinkResolver"), Metrics: deps.Metrics}
	return &turn{deps: deps, limits: deps.Limits.Normalized(), log: log, resolver: r}, nil
}

func (t *turn) ragLimit() int {
	if t.deps.RAGLimit == 0 {
		return defaultRAGLimit
	}
	return envutil.Clamp(t.deps.RAGLimit, 3, 5)
}

func (t *turn) historyWindow() int {
	if t.deps.HistoryWindow == 0 {
		return defaultHistoryWindow
	}
	return envutil.Clamp(t.deps.HistoryWindow, 6, 10)
}

func (t *turn) run(ctx context.Context, in TurnInput, onChunk func(string)) (TurnOutput, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return TurnOutput{}, newTurnError(KindEmptyMessage, ErrEmptyMessage)
	}
	if utf8.RuneCountInString(msg) > maxMessageRunes {
		return TurnOutput{}, newTurnError(KindValidation, fmt.Errorf("message exceeds %d characters", maxMessageRunes))
	}

	conv, err := t.loadConversation(ctx, in.ConversationID)
	if err != nil {
		return TurnOutput{}, err
	}
	ctxutil.GetTraceData(ctx).SetConversationID(conv.ID.String())
	log := t.log.With("conversation_id", conv.ID.String())

	candidates := t.retrieveCandidates(ctx, msg)

	order, err := t.loadActiveOrder(ctx, conv.ID)
	if err != nil {
		return TurnOutput{}, asUnexpected(err)
	}

	nluIn := NLUInput{
		UserMessage:  msg,
		History:      HistoryText(conv.RecentMessages(t.historyWindow())),
		Candidates:   candidates,
		OrderSummary: OrderSummaryText(order),
	}
	nluOut, err := t.callNLU(ctx, nluIn, onChunk)
	if err != nil {
		return TurnOutput{}, asUnexpected(err)
	}
	intent := ParseIntent(string(nluOut.Intent))

	dispatched, err := Dispatch(ctx, DispatchDeps{
		Log:      log,
		Orders:   t.deps.Orders,
		Resolver: t.resolver,
		Cache:    t.deps.Cache,
		Limits:   t.limits,
		Metrics:  t.deps.Metrics,
	}, DispatchInput{
		Intent:         intent,
		ConversationID: conv.ID,
		Order:          order,
		NLU:            nluOut,
		Candidates:     candidates,
	})
	if err != nil {
		return TurnOutput{}, asUnexpected(err)
	}

	reply := t.augmentReply(ctx, nluOut, candidates)

	conv.AddMessage(types.RoleUser, msg)
	conv.AddMessage(types.RoleAssistant, reply)
	if dispatched.Order != nil {
		conv.SetCurrentOrder(dispatched.Order.ID)
	} else {
		conv.ClearCurrentOrder()
	}
	if err := t.deps.Conversations.Save(dbctx.Context{Ctx: ctx}, conv); err != nil {
		return TurnOutput{}, asUnexpected(fmt.Errorf("save conversation: %w", err))
	}

	t.cacheContext(ctx, conv.ID, intent, dispatched, nluOut)

	log.Debug("turn processed", "intent", intent, "has_order", dispatched.Order != nil, "persisted", dispatched.Persisted)
	return TurnOutput{
		Reply:          reply,
		ConversationID: conv.ID,
		Intent:         intent,
		Order:          SummarizeOrder(dispatched.Order),
		QuickReplies:   QuickReplies(dispatched.Order),
	}, nil
}

func (t *turn) loadConversation(ctx context.Context, id *uuid.UUID) (*types.Conversation, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if id == nil || *id == uuid.Nil {
		conv := types.NewConversation(t.limits.MaxMessages)
		if err := t.deps.Conversations.Save(dbc, conv); err != nil {
			return nil, newTurnError(KindUnexpected, fmt.Errorf("create conversation: %w", err))
		}
		return conv, nil
	}
	conv, err := t.deps.Conversations.FindByID(dbc, *id)
	if err != nil {
		return nil, newTurnError(KindUnexpected, fmt.Errorf("load conversation: %w", err))
	}
	if conv == nil {
		return nil, newTurnError(KindConversationNotFound, ErrConversationNotFound)
	}
	conv.UseWindow(t.limits.MaxMessages)
	return conv, nil
}

// retrieveCandidates never fails the turn; search errors yield no candidates.
func (t *turn) retrieveCandidates(ctx context.Context, msg string) []*types.Drink {
	if t.deps.Search == nil {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "ordering.rag")
	matches, err := t.deps.Search.FindSimilar(ctx, msg, t.ragLimit())
	observability.EndSpan(span, err)
	if err != nil {
		t.log.Warn("rag candidate retrieval failed", "error", err)
		return nil
	}
	out := make([]*types.Drink, 0, len(matches))
	for _, m := range matches {
		if m.Drink != nil {
			out = append(out, m.Drink)
		}
		if len(out) == t.ragLimit() {
			break
		}
	}
	t.deps.Metrics.ObserveRAGCandidates(len(out))
	return out
}

// loadActiveOrder skips the store when the cache says the conversation has no
// active order. The hint carries no version, so a concurrent turn in another
// process can make it stale.
func (t *turn) loadActiveOrder(ctx context.Context, conversationID uuid.UUID) (*types.Order, error) {
	if t.deps.Cache != nil {
		tc, err := t.deps.Cache.Get(ctx, conversationID)
		switch {
		case err != nil:
			t.deps.Metrics.IncCacheLookup("error")
			t.log.Warn("turn cache read failed", "conversation_id", conversationID, "error", err)
		case tc == nil:
			t.deps.Metrics.IncCacheLookup("miss")
		case !tc.HasActiveOrder:
			t.deps.Metrics.IncCacheLookup("skip")
			return nil, nil
		default:
			t.deps.Metrics.IncCacheLookup("hit")
		}
	}
	order, err := t.deps.Orders.FindActiveByConversation(dbctx.Context{Ctx: ctx}, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load active order: %w", err)
	}
	if order != nil {
		order.UseLimits(t.limits)
	}
	return order, nil
}

func (t *turn) callNLU(ctx context.Context, in NLUInput, onChunk func(string)) (NLUOutput, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "ordering.nlu", attribute.String("nlu.provider", t.deps.NLUProvider))
	var (
		out NLUOutput
		err error
	)
	if onChunk != nil {
		out, err = t.deps.NLU.Stream(ctx, in, onChunk)
	} else {
		out, err = t.deps.NLU.GenerateResponse(ctx, in)
	}
	observability.EndSpan(span, err)
	status := "ok"
	if err != nil {
		status = "error"
	}
	t.deps.Metrics.ObserveNLU(t.deps.NLUProvider, status, time.Since(start))
	if err != nil {
		return NLUOutput{}, fmt.Errorf("nlu: %w", err)
	}
	return out, nil
}

// augmentReply appends menu and drink-detail blocks requested by suggested actions.
// It only changes the reply text.
func (t *turn) augmentReply(ctx context.Context, out NLUOutput, candidates []*types.Drink) string {
	reply := strings.TrimSpace(out.Reply)
	blocks := make([]string, 0, 2)
	menuAdded := false
	seenDetails := map[string]bool{}
	for _, a := range out.Actions {
		switch a.Type {
		case ActionGetFullMenu:
			if menuAdded || t.deps.Menu == nil {
				continue
			}
			drinks, err := t.deps.Menu.FindAll(dbctx.Context{Ctx: ctx})
			if err != nil {
				t.log.Warn("menu listing failed", "error", err)
				continue
			}
			blocks = append(blocks, FormatFullMenu(drinks))
			menuAdded = true
		case ActionGetDrinkDetails:
			name := strings.TrimSpace(a.DrinkName)
			if name == "" {
				name = strings.TrimSpace(a.Query)
			}
			if name == "" {
				continue
			}
			d, _ := t.resolver.Resolve(ctx, name, candidates)
			if d == nil || seenDetails[d.Name] {
				continue
			}
			seenDetails[d.Name] = true
			blocks = append(blocks, FormatDrinkDetails(d))
		}
	}
	if len(blocks) == 0 {
		return reply
	}
	if reply == "" {
		return strings.Join(blocks, "\n\n")
	}
	return reply + "\n\n" + strings.Join(blocks, "\n\n")
}

func (t *turn) cacheContext(ctx context.Context, conversationID uuid.UUID, intent Intent, d DispatchOutput, out NLUOutput) {
	if t.deps.Cache == nil {
		return
	}
	var last string
	if len(d.Added) > 0 {
		last = d.Added[0].DrinkName
	} else {
		last = PrimaryDrinkName(ExtractedItems(out, t.limits.ConfidenceFloor))
	}
	tc := TurnContext{
		Intent:         intent,
		HasActiveOrder: d.Order != nil,
		LastDrink:      last,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := t.deps.Cache.Set(ctx, conversationID, tc); err != nil {
		t.log.Warn("turn cache write failed", "error", err)
	}
}

type ConversationView struct {
	ID             uuid.UUID       `json:"id"`
	Messages       []types.Message `json:"messages"`
	CurrentOrderID *uuid.UUID      `json:"current_order_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type GetConversationDeps struct {
	Log           *logger.Logger
	Conversations ConversationStore
}

func GetConversation(ctx context.Context, deps GetConversationDeps, id uuid.UUID) (ConversationView, error) {
	if deps.Conversations == nil {
		return ConversationView{}, newTurnError(KindUnexpected, fmt.Errorf("get conversation: missing deps"))
	}
	if id == uuid.Nil {
		return ConversationView{}, newTurnError(KindValidation, fmt.Errorf("missing conversation id"))
	}
	conv, err := deps.Conversations.FindByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return ConversationView{}, newTurnError(KindUnexpected, err)
	}
	if conv == nil {
		return ConversationView{}, newTurnError(KindConversationNotFound, ErrConversationNotFound)
	}
	msgs := make([]types.Message, len(conv.Messages))
	copy(msgs, conv.Messages)
	return ConversationView{
		ID:             conv.ID,
		Messages:       msgs,
		CurrentOrderID: conv.CurrentOrderID,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}, nil
}
