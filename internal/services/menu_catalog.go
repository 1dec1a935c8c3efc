package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/barista-backend/internal/data/repos"
	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

const defaultCatalogTTL = 5 * time.Minute

// MenuService serves the drink catalog. FindAll is cached in-process; lookups by
// name and id go to the store.
type MenuService interface {
	FindAll(dbc dbctx.Context) ([]*types.Drink, error)
	FindByName(dbc dbctx.Context, name string) (*types.Drink, error)
	FindByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Drink, error)
	// Invalidate drops the cached catalog so the next FindAll reloads it.
	Invalidate()
}

type menuService struct {
	log   *logger.Logger
	drink repos.DrinkRepo
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	catalog  []*types.Drink
	loadedAt time.Time
}

func NewMenuService(log *logger.Logger, drink repos.DrinkRepo, ttl time.Duration) MenuService {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &menuService{
		log:   log.With("service", "MenuService"),
		drink: drink,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *menuService) FindAll(dbc dbctx.Context) ([]*types.Drink, error) {
	if cached, ok := s.cached(); ok {
		return cached, nil
	}
	// Loads are shared across callers; a caller's cancellation must not fail the others.
	v, err, shared := s.group.Do("catalog", func() (any, error) {
		rows, err := s.drink.FindAll(dbctx.Context{Ctx: context.WithoutCancel(ctxOf(dbc)), Tx: dbc.Tx})
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.catalog = rows
		s.loadedAt = s.now()
		s.mu.Unlock()
		s.log.Debug("menu catalog loaded", "drinks", len(rows))
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load menu catalog: %w", err)
	}
	if shared {
		s.log.Debug("menu catalog load shared")
	}
	return copyDrinks(v.([]*types.Drink)), nil
}

func (s *menuService) FindByName(dbc dbctx.Context, name string) (*types.Drink, error) {
	return s.drink.FindByName(dbc, name)
}

func (s *menuService) FindByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Drink, error) {
	return s.drink.FindByIDs(dbc, ids)
}

func (s *menuService) Invalidate() {
	s.mu.Lock()
	s.catalog = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}

func (s *menuService) cached() ([]*types.Drink, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil || s.now().Sub(s.loadedAt) >= s.ttl {
		return nil, false
	}
	return copyDrinks(s.catalog), true
}

// copyDrinks copies the slice header only; callers treat drinks as read-only.
func copyDrinks(in []*types.Drink) []*types.Drink {
	out := make([]*types.Drink, len(in))
	copy(out, in)
	return out
}

func ctxOf(dbc dbctx.Context) context.Context {
	if dbc.Ctx == nil {
		return context.Background()
	}
	return dbc.Ctx
}
