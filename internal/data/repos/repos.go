package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/barista-backend/internal/data/repos/chat"
	"github.com/yungbote/barista-backend/internal/data/repos/menu"
	"github.com/yungbote/barista-backend/internal/data/repos/ordering"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type ConversationRepo = chat.ConversationRepo
type OrderRepo = ordering.OrderRepo
type DrinkRepo = menu.DrinkRepo

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return chat.NewConversationRepo(db, baseLog)
}
func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return ordering.NewOrderRepo(db, baseLog)
}
func NewDrinkRepo(db *gorm.DB, baseLog *logger.Logger) DrinkRepo {
	return menu.NewDrinkRepo(db, baseLog)
}
