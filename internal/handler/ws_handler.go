package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/middleware"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	"github.com/thrivesend/thrivesend-backend/internal/ws"
)

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub            *ws.Hub
	users          repository.UserRepository
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler; an empty origin list allows any origin
func NewWSHandler(hub *ws.Hub, users repository.UserRepository, allowedOrigins []string) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		users:          users,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// Connect handles GET /ws/notifications (WebSocket upgrade)
func (h *WSHandler) Connect(c *gin.Context) {
	externalID := middleware.GetExternalUserID(c)
	user, err := h.users.FindByExternalID(c.Request.Context(), externalID)
	if err != nil {
		common.ErrorFrom(c, common.Wrap(common.KindInternal, "failed to load user", err))
		return
	}
	if user == nil {
		common.ErrorFrom(c, common.ErrUserNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 가 이미 에러 응답을 기록함
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
