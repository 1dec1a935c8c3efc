package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/barista-backend/internal/data/repos"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type Repos struct {
	Conversation repos.ConversationRepo
	Order        repos.OrderRepo
	Drink        repos.DrinkRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Conversation: repos.NewConversationRepo(db, log),
		Order:        repos.NewOrderRepo(db, log),
		Drink:        repos.NewDrinkRepo(db, log),
	}
}
