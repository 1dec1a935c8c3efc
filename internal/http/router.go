package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/barista-backend/internal/http/handlers"
	httpMW "github.com/yungbote/barista-backend/internal/http/middleware"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	// ServiceName enables otelgin spans when set.
	ServiceName string

	ChatHandler   *httpH.ChatHandler
	MenuHandler   *httpH.MenuHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Chat
		if cfg.ChatHandler != nil {
			api.POST("/chat", cfg.ChatHandler.Chat)
			api.POST("/chat/stream", cfg.ChatHandler.ChatStream)
			api.GET("/chat/ws", cfg.ChatHandler.ChatWS)
			api.GET("/conversations/:id", cfg.ChatHandler.GetConversation)
		}

		// Menu
		if cfg.MenuHandler != nil {
			api.GET("/menu", cfg.MenuHandler.ListDrinks)
		}
	}

	return r
}
