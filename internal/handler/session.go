package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/halfwaymeet/meetup-server-go/internal/config"
	apperrors "github.com/halfwaymeet/meetup-server-go/internal/errors"
	"github.com/halfwaymeet/meetup-server-go/internal/middleware"
	"github.com/halfwaymeet/meetup-server-go/internal/model"
	"github.com/halfwaymeet/meetup-server-go/internal/service"
)

type SessionHandler struct {
	cfg            *config.Config
	sessionService *service.SessionService
	computeService *service.ComputeService
	voteService    *service.VoteService
	createLimit    *middleware.RateLimitMiddleware
}

func NewSessionHandler(
	cfg *config.Config,
	sessionService *service.SessionService,
	computeService *service.ComputeService,
	voteService *service.VoteService,
	createLimit *middleware.RateLimitMiddleware,
) *SessionHandler {
	return &SessionHandler{
		cfg:            cfg,
		sessionService: sessionService,
		computeService: computeService,
		voteService:    voteService,
		createLimit:    createLimit,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.createLimit.Handler).Post("/", h.Create)
	r.Get("/{sessionID}", h.Get)
	r.Post("/{sessionID}/join", h.Join)
	r.Post("/{sessionID}/compute", h.Compute)
	r.Post("/{sessionID}/vote", h.Vote)

	return r
}

// POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, apperrors.InvalidInput("lat and lng are required numbers"))
		return
	}

	session, err := h.sessionService.Create(r.Context(), model.LatLng{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": session.ID,
		"shareUrl":  h.cfg.ShareURL(session.ID),
		"pinCode":   session.PinCode,
	})
}

// GET /api/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	view, err := h.sessionService.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// POST /api/sessions/{sessionID}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
		PinCode string   `json:"pinCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, apperrors.InvalidInput("lat and lng are required numbers"))
		return
	}

	err := h.sessionService.Join(r.Context(), sessionID, model.LatLng{Lat: *req.Lat, Lng: *req.Lng}, req.PinCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/sessions/{sessionID}/compute
func (h *SessionHandler) Compute(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.computeService.Compute(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /api/sessions/{sessionID}/vote
func (h *SessionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		VenueID string `json:"venueId"`
		Voter   string `json:"voter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	result, err := h.voteService.Submit(r.Context(), sessionID, req.VenueID, req.Voter)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInternal {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("vote submission failed")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
