package stream

import (
	"net/http"
	"time"

	"kindred/config"
	"kindred/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpgradeStream upgrades the connection and registers the viewer with the
// registry. The write pump copies frames from the handle to the socket; the
// read pump only watches for client close. Any error on either side
// deregisters the handle.
func UpgradeStream(cfg *config.JWTConfig, reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle, err := reg.Register(claims.UserID)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"subscribe failed"}`))
			return
		}
		defer reg.Deregister(handle)
		// No read deadline: the registry's HEARTBEAT frames keep intermediaries
		// from idling the socket, and a dead peer surfaces as a write error.
		go writePump(handle, conn)
		readPump(conn)
	}
}

func writePump(handle *Conn, conn *websocket.Conn) {
	for msg := range handle.Frames() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	// Registry closed the handle: end-of-stream.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, nil)
}

func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
