package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/leadsplit/backend/internal/auth"
	"github.com/leadsplit/backend/internal/config"
	"github.com/leadsplit/backend/internal/storage"
	"github.com/leadsplit/backend/internal/types"
	"github.com/rs/zerolog"
)

// AuthHandler serves registration, login and the current-user endpoint
type AuthHandler struct {
	store  storage.Store
	config *config.Config
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(store storage.Store, cfg *config.Config, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		config: cfg,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPayload struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to hash password")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	user := types.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		h.logger.Error().Err(err).Msg("failed to create user")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	token, err := auth.IssueToken(h.config.JWTSecret, user.ID, user.Name, user.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue token")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusCreated, tokenPayload{Token: token, User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("failed to look up user")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.IssueToken(h.config.JWTSecret, user.ID, user.Name, user.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue token")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusOK, tokenPayload{Token: token, User: *user})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.store.GetUser(claims.OwnerID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Msg("failed to load user")
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	respondData(w, http.StatusOK, user)
}
