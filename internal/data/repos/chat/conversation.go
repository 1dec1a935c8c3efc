package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Save(dbc dbctx.Context, conv *types.Conversation) error
	// FindByID returns (nil, nil) when no conversation has the id.
	FindByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Save(dbc dbctx.Context, conv *types.Conversation) error {
	if conv == nil {
		return fmt.Errorf("missing conversation")
	}
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(conv).Error
}

func (r *conversationRepo) FindByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	var out types.Conversation
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
