package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leadsplit/backend/internal/auth"
	"github.com/leadsplit/backend/internal/storage"
	"github.com/leadsplit/backend/internal/types"
	"github.com/rs/zerolog"
)

// AgentHandler provides the roster CRUD endpoints. Roster listing order is
// creation order, which is also the order uploads are partitioned in.
type AgentHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(store storage.Store, logger zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		store:  store,
		logger: logger.With().Str("component", "agent_handler").Logger(),
	}
}

type agentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// List handles GET /api/agents
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())

	agents, err := h.store.ListAgents(claims.OwnerID())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list agents")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	if agents == nil {
		agents = []types.Agent{}
	}

	respondList(w, http.StatusOK, len(agents), agents)
}

// Create handles POST /api/agents
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	now := time.Now().UTC()
	agent := types.Agent{
		ID:        uuid.New().String(),
		OwnerID:   claims.OwnerID(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
	}
	agent.SortKey = storage.AgentSortKey(now, agent.ID)

	if err := h.store.CreateAgent(agent); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		h.logger.Error().Err(err).Msg("failed to create agent")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusCreated, agent)
}

// Get handles GET /api/agents/{agentId}
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())
	agentID := chi.URLParam(r, "agentId")

	agent, err := h.store.GetAgent(claims.OwnerID(), agentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Agent not found")
			return
		}
		h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to get agent")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusOK, agent)
}

// Update handles PUT /api/agents/{agentId}
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())
	agentID := chi.URLParam(r, "agentId")

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	agent, err := h.store.GetAgent(claims.OwnerID(), agentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Agent not found")
			return
		}
		h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to get agent")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	if req.Name != "" {
		agent.Name = req.Name
	}
	if req.Email != "" {
		agent.Email = req.Email
	}
	if req.Phone != "" {
		agent.Phone = req.Phone
	}

	if err := h.store.UpdateAgent(*agent); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to update agent")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusOK, agent)
}

// Delete handles DELETE /api/agents/{agentId}
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())
	agentID := chi.URLParam(r, "agentId")

	if err := h.store.DeleteAgent(claims.OwnerID(), agentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Agent not found")
			return
		}
		h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to delete agent")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusOK, struct{}{})
}
