package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
)

const defaultTurnCacheTTL = 30 * time.Minute

// MemoryTurnCache is the single-process TurnCache used when Redis is not configured.
type MemoryTurnCache struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	rows map[uuid.UUID]memoryTurnEntry
}

type memoryTurnEntry struct {
	tc        steps.TurnContext
	expiresAt time.Time
}

var _ steps.TurnCache = (*MemoryTurnCache)(nil)

func NewMemoryTurnCache(ttl time.Duration) *MemoryTurnCache {
	if ttl <= 0 {
		ttl = defaultTurnCacheTTL
	}
	return &MemoryTurnCache{ttl: ttl, now: time.Now, rows: map[uuid.UUID]memoryTurnEntry{}}
}

func (c *MemoryTurnCache) Get(_ context.Context, conversationID uuid.UUID) (*steps.TurnContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.rows[conversationID]
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.rows, conversationID)
		return nil, nil
	}
	tc := e.tc
	return &tc, nil
}

func (c *MemoryTurnCache) Set(_ context.Context, conversationID uuid.UUID, tc steps.TurnContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[conversationID] = memoryTurnEntry{tc: tc, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryTurnCache) Invalidate(_ context.Context, conversationID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, conversationID)
	return nil
}
