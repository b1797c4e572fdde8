package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/playverse/contest-system/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeWs подключает клиента к комнате контеста. Подписчики получают
// событие RESULTS_DECLARED в момент объявления результатов.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP-ошибку клиенту.
		log.Printf("failed to upgrade connection for contest %d: %v", contestID, err)
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.ContestRoom(contestID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
