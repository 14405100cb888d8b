package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/middlewares"
)

type HubController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewHubController(h *hub.Hub, allowedOrigin string) *HubController {
	return &HubController{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin == "*" || r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Handler -> endpoint WebSocket untuk terminal POS
func (hc *HubController) Handler(c *gin.Context) {
	ws, err := hc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	hc.Hub.Register(ws, middlewares.EmployeeID(c))

	// terminal tidak mengirim apa-apa, baca hanya untuk mendeteksi disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	hc.Hub.Unregister(ws)
}
