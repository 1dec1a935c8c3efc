package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type Config struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type turnCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// TurnCache is a steps.TurnCache that can be closed.
type TurnCache interface {
	steps.TurnCache
	Close() error
}

// NewTurnCache connects and pings before returning.
func NewTurnCache(ctx context.Context, log *logger.Logger, cfg Config) (TurnCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "barista:turn"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &turnCache{
		log:    log.With("service", "RedisTurnCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (c *turnCache) key(id uuid.UUID) string { return c.prefix + ":" + id.String() }

func (c *turnCache) Get(ctx context.Context, conversationID uuid.UUID) (*steps.TurnContext, error) {
	raw, err := c.rdb.Get(ctx, c.key(conversationID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tc steps.TurnContext
	if err := json.Unmarshal(raw, &tc); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.log.Warn("dropping undecodable turn context", "conversation_id", conversationID, "error", err)
		_ = c.rdb.Del(ctx, c.key(conversationID)).Err()
		return nil, nil
	}
	return &tc, nil
}

func (c *turnCache) Set(ctx context.Context, conversationID uuid.UUID, tc steps.TurnContext) error {
	raw, err := json.Marshal(tc)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(conversationID), raw, c.ttl).Err()
}

func (c *turnCache) Invalidate(ctx context.Context, conversationID uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(conversationID)).Err()
}

func (c *turnCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
