package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vetassist/vetchat/internal/auth"
	"github.com/vetassist/vetchat/internal/conversation"
	"github.com/vetassist/vetchat/internal/domain"
	"github.com/vetassist/vetchat/internal/ratelimit"
	"github.com/vetassist/vetchat/internal/server"
	"github.com/vetassist/vetchat/internal/store"
)

// StatusReporter exposes the health of the session store backend.
type StatusReporter interface {
	Status(ctx context.Context) store.Status
}

// Handler serves the public JSON API.
type Handler struct {
	engine   *conversation.Engine
	limiter  *ratelimit.Limiter
	verifier *auth.Verifier
	status   StatusReporter
	logger   *slog.Logger
	started  time.Time
}

func NewHandler(engine *conversation.Engine, limiter *ratelimit.Limiter, verifier *auth.Verifier, status StatusReporter, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		limiter:  limiter,
		verifier: verifier,
		status:   status,
		logger:   logger,
		started:  time.Now(),
	}
}

// Routes mounts all API routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/profile", h.handleProfile)
	r.Post("/session/clear", h.handleClear)
	r.Get("/health", h.handleHealth)
}

type chatRequest struct {
	Message   string             `json:"message"`
	SessionID string             `json:"sessionId,omitempty"`
	PetInfo   *domain.PetProfile `json:"petInfo,omitempty"`
	Location  string             `json:"location,omitempty"`
}

type chatResponse struct {
	Response          string            `json:"response"`
	SessionID         string            `json:"sessionId"`
	PetProfile        domain.PetProfile `json:"petProfile"`
	EmergencyDetected bool              `json:"emergencyDetected"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	userID := h.verifier.Identify(r)
	server.AddLogField(r.Context(), "user_id", userID)

	decision, allowed := h.limiter.Allow(r.Context(), userID)
	server.SetRateLimit(r.Context(), decision)
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	result, err := h.engine.HandleTurn(r.Context(), userID, req.SessionID, req.Message, req.PetInfo, req.Location)
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.AddLogField(r.Context(), "session_id", result.SessionID)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:          result.Response,
		SessionID:         result.SessionID,
		PetProfile:        result.Profile,
		EmergencyDetected: result.Emergency,
	})
}

type profileResponse struct {
	SessionID       string            `json:"sessionId"`
	PetProfile      domain.PetProfile `json:"petProfile"`
	LocationSummary string            `json:"locationSummary,omitempty"`
	Stage           domain.Stage      `json:"stage"`
	MessageCount    int               `json:"messageCount"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	userID := h.verifier.Identify(r)
	rec, err := h.engine.Profile(r.Context(), userID, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		SessionID:       rec.SessionID,
		PetProfile:      rec.Profile,
		LocationSummary: rec.LocationSummary,
		Stage:           rec.Consultation.Stage,
		MessageCount:    rec.MessageCount,
	})
}

type clearRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	userID := h.verifier.Identify(r)
	if err := h.engine.Clear(r.Context(), userID, req.SessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

type healthResponse struct {
	Status        store.Status `json:"status"`
	UptimeSeconds int64        `json:"uptimeSeconds"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.status.Status(r.Context())

	code := http.StatusOK
	if status == store.StatusUnreachable {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, healthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
