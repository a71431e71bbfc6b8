package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DustGalaxy/dZENcode-Test-Task/config"
	"github.com/DustGalaxy/dZENcode-Test-Task/realtime"
	"github.com/DustGalaxy/dZENcode-Test-Task/utils"
)

// WSController upgrades realtime connections and attaches them to thread
// groups.
type WSController struct {
	hub      *realtime.Hub
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewWSController(hub *realtime.Hub, logger *zap.SugaredLogger) *WSController {
	return &WSController{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originAllowed,
		},
	}
}

// Subscribe joins the connection to the thread group named by the path id and
// then upgrades the request. Joining first means the subscription exists
// before the handshake acknowledges the client, so an acknowledged subscriber
// never misses an event published after its connect ack.
func (w *WSController) Subscribe(ctx *gin.Context) {
	raw := strings.TrimSpace(ctx.Param("id"))
	threadID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || threadID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid thread id")
		return
	}

	sub := w.hub.Join(uint(threadID))
	conn, err := w.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		w.hub.Leave(uint(threadID), sub.ID)
		// Upgrade already wrote the error response.
		w.logger.Debugf("websocket upgrade failed: %v", err)
		return
	}
	realtime.ServeWS(w.hub, uint(threadID), sub, conn, w.logger)
}

func originAllowed(r *http.Request) bool {
	allowed := config.Get().AllowedOrigins
	if len(allowed) == 1 && allowed[0] == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
