package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/barista-backend/internal/http/response"
	"github.com/yungbote/barista-backend/internal/modules/ordering"
	"github.com/yungbote/barista-backend/internal/platform/apierr"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

// TurnService is the ordering surface the chat endpoints need.
type TurnService interface {
	ProcessTurn(ctx context.Context, in ordering.TurnInput) (ordering.TurnOutput, error)
	StreamTurn(ctx context.Context, in ordering.TurnInput, onChunk func(string)) (ordering.TurnOutput, error)
	GetConversation(ctx context.Context, id uuid.UUID) (ordering.ConversationView, error)
}

type ChatHandler struct {
	log   *logger.Logger
	turns TurnService
}

func NewChatHandler(log *logger.Logger, turns TurnService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), turns: turns}
}

type chatReq struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id"`
}

func (r chatReq) toInput() (ordering.TurnInput, error) {
	in := ordering.TurnInput{Message: r.Message}
	if r.ConversationID == nil || strings.TrimSpace(*r.ConversationID) == "" {
		return in, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*r.ConversationID))
	if err != nil {
		return in, apierr.BadRequest("invalid_conversation_id", fmt.Errorf("invalid conversation_id: %w", err))
	}
	in.ConversationID = &id
	return in, nil
}

func bindChatReq(c *gin.Context) (ordering.TurnInput, bool) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return ordering.TurnInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		response.RespondAPIError(c, err)
		return ordering.TurnInput{}, false
	}
	return in, true
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	in, ok := bindChatReq(c)
	if !ok {
		return
	}
	out, err := h.turns.ProcessTurn(c.Request.Context(), in)
	if err != nil {
		h.respondTurnError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/chat/stream
//
// Server-sent events: any number of "chunk" events carrying reply text, then
// exactly one "done" (the full turn) or "error" event.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	in, ok := bindChatReq(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	var mu sync.Mutex
	send := func(event string, payload any) {
		mu.Lock()
		defer mu.Unlock()
		c.SSEvent(event, payload)
		c.Writer.Flush()
	}

	out, err := h.turns.StreamTurn(c.Request.Context(), in, func(chunk string) {
		send("chunk", gin.H{"text": chunk})
	})
	if err != nil {
		ae := turnAPIError(err)
		h.logTurnError(ae, err)
		send("error", response.NewErrorEnvelope(ae.Code, ae.Err))
		return
	}
	send("done", out)
}

// GET /api/conversations/:id
func (h *ChatHandler) GetConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	view, err := h.turns.GetConversation(c.Request.Context(), id)
	if err != nil {
		h.respondTurnError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": view})
}

func (h *ChatHandler) respondTurnError(c *gin.Context, err error) {
	ae := turnAPIError(err)
	h.logTurnError(ae, err)
	_ = c.Error(err)
	response.RespondAPIError(c, ae)
}

func (h *ChatHandler) logTurnError(ae *apierr.Error, err error) {
	if ae.Status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		h.log.Error("turn failed", "code", ae.Code, "error", err)
	}
}
