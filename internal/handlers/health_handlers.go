package handlers

import (
	"encoding/json"
	"net/http"

	"chat-server/internal/chat"
)

// HealthHandlers is the read-only HTTP surface next to the wire protocol:
// a health report and an active-room listing. Neither mutates state.
type HealthHandlers struct {
	supervisor *chat.Supervisor
}

func NewHealthHandlers(supervisor *chat.Supervisor) *HealthHandlers {
	return &HealthHandlers{supervisor: supervisor}
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Rooms   int    `json:"rooms"`
}

func (h *HealthHandlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Clients: h.supervisor.ClientCount(),
		Rooms:   h.supervisor.RoomCount(),
	})
}

func (h *HealthHandlers) Rooms(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.supervisor.RoomStats())
}
