package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/auth"
	"github.com/freeeve/grand-campaign/internal/service"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

// AuthHandler issues seat tokens.
type AuthHandler struct {
	jwtMgr      *auth.JWTManager
	campaignSvc *service.CampaignService
	dev         bool
}

// NewAuthHandler creates an AuthHandler. Dev tokens are only issued when dev
// is true.
func NewAuthHandler(jwtMgr *auth.JWTManager, campaignSvc *service.CampaignService, dev bool) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr, campaignSvc: campaignSvc, dev: dev}
}

// DevLogin handles POST /auth/dev. It hands out a token for any country of
// an existing campaign without further checks.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if !h.dev {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var seat auth.Seat
	if err := decodeJSON(r, &seat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if seat.CampaignID == "" || seat.Country == "" {
		writeError(w, http.StatusBadRequest, "campaign_id and country are required")
		return
	}

	ws, err := h.campaignSvc.Snapshot(r.Context(), seat.CampaignID)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) || errors.Is(err, service.ErrNoSnapshot) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		log.Error().Err(err).Str("campaignId", seat.CampaignID).Msg("Failed to load campaign for dev login")
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	if !ws.CountryExists(warfare.Tag(seat.Country)) {
		writeError(w, http.StatusBadRequest, "unknown country "+seat.Country)
		return
	}

	tok, err := h.jwtMgr.GenerateToken(seat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, tok)
}
