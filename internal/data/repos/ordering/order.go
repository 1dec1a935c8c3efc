package ordering

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type OrderRepo interface {
	// FindActiveByConversation returns the newest active pending/confirmed order, or (nil, nil).
	FindActiveByConversation(dbc dbctx.Context, conversationID uuid.UUID) (*types.Order, error)
	FindByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	SaveWithConversation(dbc dbctx.Context, order *types.Order, conversationID uuid.UUID) error
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, log *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: log.With("repo", "OrderRepo")}
}

func (r *orderRepo) FindActiveByConversation(dbc dbctx.Context, conversationID uuid.UUID) (*types.Order, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}
	var out types.Order
	err := dbc.DB(r.db).
		Where("conversation_id = ? AND active = ? AND status IN ?",
			conversationID, true,
			[]string{string(types.OrderStatusPending), string(types.OrderStatusConfirmed)}).
		Order("updated_at DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) FindByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.Order
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) SaveWithConversation(dbc dbctx.Context, order *types.Order, conversationID uuid.UUID) error {
	if order == nil {
		return fmt.Errorf("missing order")
	}
	if conversationID == uuid.Nil {
		return fmt.Errorf("missing conversation_id")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	cid := conversationID
	order.ConversationID = &cid
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if order.Active {
			// At most one active order per conversation.
			if err := tx.Model(&types.Order{}).
				Where("conversation_id = ? AND id <> ? AND active = ?", conversationID, order.ID, true).
				Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()}).Error; err != nil {
				return fmt.Errorf("deactivate sibling orders: %w", err)
			}
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(order).Error
	})
}
