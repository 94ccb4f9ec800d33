package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sohan181204/collaborative-canvas/internal/ws"
)

type API struct {
	hub *ws.Hub
}

func New(hub *ws.Hub) *API {
	return &API{hub: hub}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"active_rooms":   a.hub.RoomCount(),
		"active_clients": a.hub.ClientCount(),
		"rooms":          a.hub.RoomSummary(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
