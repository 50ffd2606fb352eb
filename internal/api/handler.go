// Package api exposes the advisory engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// maxQueryLen caps the accepted query size.
const maxQueryLen = 500

// Advisor is the engine surface the handler depends on.
type Advisor interface {
	ProcessQuery(ctx context.Context, req model.QueryRequest) (*model.AgentResponse, error)
	Reset(ctx context.Context, sessionID string) error
}

// Handler serves the analyze/reset/health endpoints.
type Handler struct {
	advisor Advisor
}

func NewHandler(advisor Advisor) *Handler {
	return &Handler{advisor: advisor}
}

// RegisterRoutes mounts the API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/analyze", h.analyze)
	r.Post("/api/reset", h.reset)
	r.Get("/health", h.health)
}

type analyzeRequest struct {
	Query     string   `json:"query"`
	Crop      string   `json:"crop,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Query = sanitizeQuery(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "query max length exceeded (500 chars)")
		return
	}
	if req.Lat != nil && (*req.Lat < -90 || *req.Lat > 90) {
		writeError(w, http.StatusBadRequest, "lat must be within [-90, 90]")
		return
	}
	if req.Lon != nil && (*req.Lon < -180 || *req.Lon > 180) {
		writeError(w, http.StatusBadRequest, "lon must be within [-180, 180]")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, err := h.advisor.ProcessQuery(r.Context(), model.QueryRequest{
		Query:     req.Query,
		Crop:      req.Crop,
		Lat:       req.Lat,
		Lon:       req.Lon,
		SessionID: req.SessionID,
	})
	if err != nil {
		logx.Error().Err(err).Str("session_id", req.SessionID).Msg("analyze failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	// A missing or malformed body resets the default session, matching
	// clients that POST without a payload.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		req.SessionID = "default"
	}

	if err := h.advisor.Reset(r.Context(), req.SessionID); err != nil {
		logx.Error().Err(err).Str("session_id", req.SessionID).Msg("session reset failed")
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "Session reset"})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// sanitizeQuery trims whitespace and strips characters with no place in a
// spoken or typed farming question, a basic injection guard.
func sanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '\'', '"', '\\', '<', '>':
			return -1
		}
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, q)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
