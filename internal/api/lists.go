package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leadsplit/backend/internal/auth"
	"github.com/leadsplit/backend/internal/decode"
	"github.com/leadsplit/backend/internal/distributor"
	"github.com/leadsplit/backend/internal/normalize"
	"github.com/leadsplit/backend/internal/partition"
	"github.com/leadsplit/backend/internal/storage"
	"github.com/leadsplit/backend/internal/types"
	"github.com/leadsplit/backend/internal/websocket"
	"github.com/rs/zerolog"
)

// Notifier publishes upload events to connected dashboard clients.
type Notifier interface {
	NotifyUpload(ownerID string, event websocket.UploadEvent)
}

// ListHandler serves the upload and assignment view endpoints
type ListHandler struct {
	service        *distributor.Service
	notifier       Notifier
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewListHandler creates a new ListHandler. notifier may be nil when no
// push feed is wired (tests).
func NewListHandler(service *distributor.Service, notifier Notifier, maxUploadBytes int64, logger zerolog.Logger) *ListHandler {
	return &ListHandler{
		service:        service,
		notifier:       notifier,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("component", "list_handler").Logger(),
	}
}

// Upload handles POST /api/lists/upload. The file arrives as the "file"
// multipart field; its extension declares the format.
func (h *ListHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Please upload a file")
		return
	}
	defer file.Close()

	format, err := decode.FormatFromFilename(header.Filename)
	if err != nil {
		respondError(w, http.StatusBadRequest, "File upload only allows CSV, XLSX, and XLS")
		return
	}

	result, err := h.service.Distribute(claims.OwnerID(), file, format)
	if err != nil {
		h.respondDistributeError(w, claims.OwnerID(), result, err)
		return
	}

	if h.notifier != nil {
		counts := make(map[string]int, len(result.Summaries))
		for _, summary := range result.Summaries {
			counts[summary.AgentID] = summary.Count
		}
		h.notifier.NotifyUpload(claims.OwnerID(), websocket.UploadEvent{
			BatchID:     result.BatchID,
			Persisted:   result.Persisted,
			Skipped:     len(result.Skipped),
			AgentCounts: counts,
		})
	}

	respondData(w, http.StatusCreated, result)
}

func (h *ListHandler) respondDistributeError(w http.ResponseWriter, ownerID string, result *distributor.Result, err error) {
	var missing *normalize.MissingFieldError

	switch {
	case errors.Is(err, decode.ErrUnsupportedFormat):
		respondError(w, http.StatusBadRequest, "Invalid file format")
	case errors.Is(err, decode.ErrCorruptFile):
		respondError(w, http.StatusBadRequest, "File could not be parsed")
	case errors.As(err, &missing):
		respondError(w, http.StatusBadRequest,
			"Invalid data format. FirstName and Phone fields are required: "+missing.Error())
	case errors.Is(err, partition.ErrNoAgents):
		respondError(w, http.StatusBadRequest, "No agents available for distribution")
	case errors.Is(err, storage.ErrUnavailable):
		message := "Storage unavailable"
		if result != nil {
			// Per-record writes: whatever got in before the failure stays.
			message = err.Error()
		}
		respondError(w, http.StatusBadGateway, message)
	default:
		h.logger.Error().Err(err).Str("owner_id", ownerID).Msg("upload failed")
		respondError(w, http.StatusInternalServerError, "Server error during data processing")
	}
}

// GetAll handles GET /api/lists
func (h *ListHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())

	views, err := h.service.ListAll(claims.OwnerID())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list assignments")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	if views == nil {
		views = []types.AssignmentView{}
	}

	respondList(w, http.StatusOK, len(views), views)
}

// GetByAgent handles GET /api/lists/agent/{agentId}
func (h *ListHandler) GetByAgent(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())
	agentID := chi.URLParam(r, "agentId")

	views, err := h.service.ListByAgent(claims.OwnerID(), agentID)
	if err != nil {
		h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to list agent assignments")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	if views == nil {
		views = []types.AssignmentView{}
	}

	respondList(w, http.StatusOK, len(views), views)
}

// Summary handles GET /api/lists/summary
func (h *ListHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())

	summaries, err := h.service.Summarize(claims.OwnerID())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to summarize")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondList(w, http.StatusOK, len(summaries), summaries)
}
