package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/barista-backend/internal/http/response"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/services"
)

type MenuHandler struct {
	menu services.MenuService
}

func NewMenuHandler(menu services.MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// GET /api/menu
func (h *MenuHandler) ListDrinks(c *gin.Context) {
	drinks, err := h.menu.FindAll(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		_ = c.Error(err)
		response.RespondError(c, http.StatusInternalServerError, "menu_unavailable", err)
		return
	}
	response.RespondOK(c, gin.H{"drinks": drinks})
}
