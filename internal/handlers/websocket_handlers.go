package handlers

import (
	"net/http"

	"chat-server/internal/auth"
	"chat-server/internal/chat"
	"chat-server/internal/config"
	"chat-server/internal/models"
	"chat-server/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	supervisor  *chat.Supervisor
	cfg         *config.Config
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, supervisor *chat.Supervisor, cfg *config.Config) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		supervisor:  supervisor,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket upgrades the connection and hands it to the supervisor.
// Every connection gets an ephemeral session; a valid token on the query
// string only seeds that session's identity from the linked account.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var seed *models.Session
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" && h.authService.Enabled() {
		user, err := h.authService.GetUserFromToken(r.Context(), tokenStr)
		if err != nil {
			logger.Debug("Ignoring invalid token on connect: %v", err)
		} else {
			seed = &models.Session{
				UserID:    user.ID,
				FirstName: user.Username,
			}
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := chat.NewClient(conn, h.supervisor, r.RemoteAddr, h.cfg.Chat.SendBuffer)
	h.supervisor.Connect(client, seed)

	go client.WritePump()
	go client.ReadPump()
}
