package api

import (
	"alcyxob/chat-app/internal/chat"
	"alcyxob/chat-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WsHandler authorizes websocket handshakes and hands admitted
// connections to the chat hub.
type WsHandler struct {
	authService service.AuthService
	hub         *chat.Hub
	upgrader    websocket.Upgrader
}

// NewWsHandler creates a new WsHandler.
func NewWsHandler(authService service.AuthService, hub *chat.Hub) *WsHandler {
	return &WsHandler{
		authService: authService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The bearer token is validated before the
// upgrade so rejected clients get a plain HTTP error with a reason.
func (h *WsHandler) Serve(c *gin.Context) {
	claims, err := h.authService.VerifyToken(bearerToken(c.Request))
	if err != nil {
		reason := "invalid token"
		switch {
		case errors.Is(err, service.ErrNoToken):
			reason = "no token provided"
		case errors.Is(err, service.ErrExpiredToken):
			reason = "expired token provided"
		}
		abortWithError(c, http.StatusUnauthorized, reason)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	// Blocks until the client disconnects or the session is evicted.
	h.hub.Serve(c.Request.Context(), newWsConn(conn), claims)
}

// wsConn adapts a gorilla websocket connection to the chat.Conn
// transport.
type wsConn struct {
	conn *websocket.Conn
}

func newWsConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadEvent() (chat.Envelope, error) {
	var evt chat.Envelope
	err := c.conn.ReadJSON(&evt)
	return evt, err
}

func (c *wsConn) WriteEvent(evt chat.Envelope) error {
	return c.conn.WriteJSON(evt)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
