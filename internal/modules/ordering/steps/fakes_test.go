package steps

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

var errStoreDown = errors.New("store unavailable")

func testLog() *logger.Logger { return logger.NewNop() }

func drink(name string, price int64, caps types.Capabilities) *types.Drink {
	return &types.Drink{
		ID:           uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name:         name,
		Description:  name + " description",
		PriceAmount:  price,
		Currency:     "USD",
		Capabilities: caps,
	}
}

var allCaps = types.Capabilities{Milk: true, Syrup: true, Sweetener: true, Topping: true, Size: true}

type memMenu struct {
	drinks []*types.Drink
	err    error
	calls  int
}

func (m *memMenu) FindAll(dbctx.Context) ([]*types.Drink, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.drinks, nil
}

func (m *memMenu) FindByName(_ dbctx.Context, name string) (*types.Drink, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.drinks {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return nil, nil
}

type fakeSearch struct {
	matches []DrinkMatch
	err     error
	queries []string
}

func (f *fakeSearch) FindSimilar(_ context.Context, text string, limit int) ([]DrinkMatch, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.matches) {
		return f.matches[:limit], nil
	}
	return f.matches, nil
}

type memOrders struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*types.Order
	saves int
	err   error
}

func newMemOrders() *memOrders {
	return &memOrders{rows: map[uuid.UUID]*types.Order{}}
}

func (m *memOrders) FindActiveByConversation(_ dbctx.Context, conversationID uuid.UUID) (*types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *types.Order
	for _, o := range m.rows {
		if o.ConversationID == nil || *o.ConversationID != conversationID || !o.Active || o.Status.IsTerminal() {
			continue
		}
		if newest == nil || o.UpdatedAt.After(newest.UpdatedAt) {
			newest = o
		}
	}
	return newest.Clone(), nil
}

func (m *memOrders) SaveWithConversation(_ dbctx.Context, order *types.Order, conversationID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cid := conversationID
	order.ConversationID = &cid
	if order.Active {
		for id, o := range m.rows {
			if id != order.ID && o.ConversationID != nil && *o.ConversationID == conversationID {
				o.Active = false
			}
		}
	}
	m.rows[order.ID] = order.Clone()
	m.saves++
	return nil
}

func (m *memOrders) get(id uuid.UUID) *types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Clone()
}

type memConversations struct {
	rows    map[uuid.UUID]*types.Conversation
	saveErr error
	findErr error
}

func newMemConversations() *memConversations {
	return &memConversations{rows: map[uuid.UUID]*types.Conversation{}}
}

func (m *memConversations) Save(_ dbctx.Context, conv *types.Conversation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *conv
	cp.Messages = append(cp.Messages[:0:0], conv.Messages...)
	m.rows[conv.ID] = &cp
	return nil
}

func (m *memConversations) FindByID(_ dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Messages = append(cp.Messages[:0:0], c.Messages...)
	return &cp, nil
}

// scriptedNLU returns queued outputs in order and records every input.
type scriptedNLU struct {
	outputs []NLUOutput
	chunks  []string
	err     error
	inputs  []NLUInput
}

func (s *scriptedNLU) next(in NLUInput) (NLUOutput, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return NLUOutput{}, s.err
	}
	if len(s.outputs) == 0 {
		return NLUOutput{Intent: IntentUnknown, Reply: "Sorry?"}, nil
	}
	out := s.outputs[0]
	s.outputs = s.outputs[1:]
	return out, nil
}

func (s *scriptedNLU) GenerateResponse(_ context.Context, in NLUInput) (NLUOutput, error) {
	return s.next(in)
}

func (s *scriptedNLU) Stream(_ context.Context, in NLUInput, onChunk func(string)) (NLUOutput, error) {
	for _, c := range s.chunks {
		onChunk(c)
	}
	return s.next(in)
}

type memCache struct {
	rows        map[uuid.UUID]TurnContext
	invalidated int
	getErr      error
	setErr      error
}

func newMemCache() *memCache { return &memCache{rows: map[uuid.UUID]TurnContext{}} }

func (m *memCache) Get(_ context.Context, id uuid.UUID) (*TurnContext, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	tc, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &tc, nil
}

func (m *memCache) Set(_ context.Context, id uuid.UUID, tc TurnContext) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.rows[id] = tc
	return nil
}

func (m *memCache) Invalidate(_ context.Context, id uuid.UUID) error {
	m.invalidated++
	delete(m.rows, id)
	return nil
}

func intp(v int) *int { return &v }

func orderAction(items ...ExtractedOrderItem) SuggestedAction {
	return SuggestedAction{Type: ActionAddItem, Items: items}
}

func modAction(mods ...ExtractedModification) SuggestedAction {
	return SuggestedAction{Type: ActionUpdateItem, Modifications: mods}
}
