package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/internal/middleware"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
	"github.com/thrivesend/thrivesend-backend/internal/ws"
	"github.com/thrivesend/thrivesend-backend/pkg/jwt"
)

const allowedOrigin = "https://app.thrivesend.test"

func newWSRouter(hub *ws.Hub, users repository.UserRepository) *gin.Engine {
	h := NewWSHandler(hub, users, []string{allowedOrigin})
	r := gin.New()
	r.GET("/ws/notifications", middleware.BearerAuth(jwt.NewManager(testSecret, "")), h.Connect)
	return r
}

func upgradeRequest(auth, origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Authorization", auth)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestWSHandler_RejectsDisallowedOrigin(t *testing.T) {
	_, users := setupHandlerDB(t)
	hub := ws.NewHub(nil)
	go hub.Run()
	defer hub.Stop()
	r := newWSRouter(hub, users)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, upgradeRequest(token(t, "u1"), "https://evil.example"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	user, err := users.FindByExternalID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, hub.ConnectionCount(user.ID))
}

func TestWSHandler_UnknownUser(t *testing.T) {
	_, users := setupHandlerDB(t)
	hub := ws.NewHub(nil)
	defer hub.Stop()
	r := newWSRouter(hub, users)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, upgradeRequest(token(t, "ghost"), allowedOrigin))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWSHandler_AllowedOriginConnects(t *testing.T) {
	_, users := setupHandlerDB(t)
	hub := ws.NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(newWSRouter(hub, users))
	defer srv.Close()

	tok := strings.TrimPrefix(token(t, "u1"), "Bearer ")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + tok
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{allowedOrigin}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	user, err := users.FindByExternalID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return hub.ConnectionCount(user.ID) == 1 }, time.Second, 10*time.Millisecond)

	hub.SendToUser(user.ID, &ws.Event{Type: ws.EventUnreadCount, Payload: map[string]int{"totalUnread": 1}})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var ev ws.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, ws.EventUnreadCount, ev.Type)
}
