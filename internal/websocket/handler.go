package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/leadsplit/backend/internal/auth"
	"github.com/leadsplit/backend/internal/config"
	"github.com/rs/zerolog"
)

// UploadEvent is pushed to an owner's dashboard clients when one of their
// uploads finishes distributing.
type UploadEvent struct {
	Type        string         `json:"type"`
	BatchID     string         `json:"batchId"`
	Persisted   int            `json:"persisted"`
	Skipped     int            `json:"skipped"`
	AgentCounts map[string]int `json:"agentCounts"`
}

// EventUploadCompleted is the Type of an UploadEvent.
const EventUploadCompleted = "upload_completed"

// Handler handles WebSocket upgrade requests
type Handler struct {
	hub    *Hub
	config *config.Config
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, cfg *config.Config, logger zerolog.Logger) *Handler {
	h := &Handler{
		hub:    hub,
		config: cfg,
		logger: logger,
	}
	return h
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.config.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// ServeHTTP handles WebSocket upgrade requests. Auth middleware has
// already validated the token, so the owner is taken from the context.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewClient(h.hub, conn, h.config, h.logger, claims.OwnerID())
	h.hub.register <- client
	client.Start()
}

// NotifyUpload publishes an UploadEvent to the owner's clients.
func (h *Handler) NotifyUpload(ownerID string, event UploadEvent) {
	event.Type = EventUploadCompleted
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal upload event")
		return
	}
	h.hub.NotifyOwner(ownerID, data)
}
