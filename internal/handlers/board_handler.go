package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"turcrm/internal/realtime"
)

type BoardHandler struct {
	Hub *realtime.BoardHub
}

func NewBoardHandler(hub *realtime.BoardHub) *BoardHandler {
	return &BoardHandler{Hub: hub}
}

// Stream: GET /api/ws/board. Токен приходит в ?token=, заголовок браузер не выставит.
func (h *BoardHandler) Stream(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws][board][upgrade] user=%d: %v", userID, err)
		return
	}
	h.Hub.Serve(conn, userID)
}
