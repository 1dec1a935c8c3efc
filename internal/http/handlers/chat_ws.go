package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yungbote/barista-backend/internal/http/response"
	"github.com/yungbote/barista-backend/internal/modules/ordering"
	"github.com/yungbote/barista-backend/internal/platform/apierr"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsReadLimit  = 64 * 1024
)

// wsPongWait bounds each wait for a client frame or pong. It is re-armed after
// every turn, so a turn may run longer than it.
var wsPongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS allow-list in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is every server-to-client websocket message.
type wsFrame struct {
	Type  string               `json:"type"`
	Text  string               `json:"text,omitempty"`
	Turn  *ordering.TurnOutput `json:"turn,omitempty"`
	Error *response.APIError   `json:"error,omitempty"`
}

// GET /api/chat/ws
//
// Each client text frame is a chat request. Turns on one connection run one at a
// time; a request without conversation_id continues the connection's last conversation.
func (h *ChatHandler) ChatWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	ctx := c.Request.Context()

	send := make(chan wsFrame, 64)
	done := make(chan struct{})
	go h.wsWritePump(conn, send, done)
	defer func() {
		close(send)
		<-done
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	var current *uuid.UUID
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req chatReq
		if err := json.Unmarshal(raw, &req); err != nil {
			send <- errorFrame(apierr.BadRequest("invalid_request", err))
			continue
		}
		in, err := req.toInput()
		if err != nil {
			send <- errorFrame(apierr.As(err))
			continue
		}
		if in.ConversationID == nil {
			in.ConversationID = current
		}

		out, err := h.turns.StreamTurn(ctx, in, func(chunk string) {
			send <- wsFrame{Type: "chunk", Text: chunk}
		})
		if err != nil {
			ae := turnAPIError(err)
			h.logTurnError(ae, err)
			send <- errorFrame(ae)
		} else {
			id := out.ConversationID
			current = &id
			send <- wsFrame{Type: "done", Turn: &out}
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

func errorFrame(ae *apierr.Error) wsFrame {
	env := response.NewErrorEnvelope(ae.Code, ae.Err)
	return wsFrame{Type: "error", Error: &env.Error}
}

func (h *ChatHandler) wsWritePump(conn *websocket.Conn, send <-chan wsFrame, done chan<- struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case frame, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				h.log.Debug("websocket write failed", "error", err)
				drain(send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				drain(send)
				return
			}
		}
	}
}

// drain keeps the reader from blocking on send after the writer has gone away.
func drain(send <-chan wsFrame) {
	go func() {
		for range send {
		}
	}()
}
