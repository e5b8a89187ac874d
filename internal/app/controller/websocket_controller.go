package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/udonggeum-basket/internal/errors"
	"github.com/ikkim/udonggeum-basket/internal/middleware"
	ws "github.com/ikkim/udonggeum-basket/internal/websocket"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

const (
	msgGateConfirm = "gate_confirm"
	msgGateDismiss = "gate_dismiss"
)

type WebSocketController struct {
	hub      *ws.Hub
	gates    GateResolver
	upgrader websocket.Upgrader
}

// NewWebSocketController also installs the hub's client message handler,
// which resolves gates named in gate_confirm and gate_dismiss messages.
func NewWebSocketController(hub *ws.Hub, gates GateResolver, allowedOrigins []string) *WebSocketController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	ctrl := &WebSocketController{
		hub:   hub,
		gates: gates,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
	hub.OnMessage(ctrl.handleMessage)
	return ctrl
}

// Connect upgrades the request and streams UI events to the session
// GET /ws
func (ctrl *WebSocketController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, sessionID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"session_id": sessionID,
	})
}

// handleMessage runs on the client's read loop. Gate continuations call the
// checkout API, so resolution runs on its own goroutine.
func (ctrl *WebSocketController) handleMessage(client *ws.Client, msg ws.ClientMessage) {
	switch msg.Type {
	case msgGateConfirm, msgGateDismiss:
		go ctrl.resolveGate(client.SessionID, msg)
	default:
		logger.Debug("Ignoring client message", map[string]interface{}{
			"session_id": client.SessionID,
			"type":       msg.Type,
		})
	}
}

func (ctrl *WebSocketController) resolveGate(sessionID string, msg ws.ClientMessage) {
	var err error
	if msg.Type == msgGateConfirm {
		err = ctrl.gates.Confirm(msg.GateID, msg.Form)
	} else {
		err = ctrl.gates.Dismiss(msg.GateID)
	}

	if err != nil {
		logger.Warn("Failed to resolve gate from socket", map[string]interface{}{
			"session_id": sessionID,
			"gate_id":    msg.GateID,
			"error":      err.Error(),
		})
	}
}
