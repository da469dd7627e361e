package hub

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades the request and streams progress messages until the
// client disconnects. ?sheet_id= restricts the stream to one sheet.
func WSHandler(h *Hub, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		sheetID := c.Query("sheet_id")

		_ = ws.WriteJSON(gin.H{"type": "welcome", "sheet_id": sheetID})
		go h.WritePump(h.Add(ws, sheetID))
		logger.Info("ws client connected", "sheet_id", sheetID, "remote", c.ClientIP())

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		h.Remove(ws)
		logger.Info("ws client disconnected", "sheet_id", sheetID)
	}
}
