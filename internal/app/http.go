package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/barista-backend/internal/http"
	httpH "github.com/yungbote/barista-backend/internal/http/handlers"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Chat   *httpH.ChatHandler
	Menu   *httpH.MenuHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health: httpH.NewHealthHandler(pinger),
		Chat:   httpH.NewChatHandler(log, services.Ordering),
		Menu:   httpH.NewMenuHandler(services.Menu),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ServiceName:    serviceName,
		ChatHandler:    handlers.Chat,
		MenuHandler:    handlers.Menu,
		HealthHandler:  handlers.Health,
	})
}
