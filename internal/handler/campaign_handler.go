package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/model"
	"github.com/freeeve/grand-campaign/internal/service"
)

// CampaignHandler handles campaign lifecycle and read endpoints.
type CampaignHandler struct {
	campaignSvc *service.CampaignService
	hub         *Hub
}

// NewCampaignHandler creates a CampaignHandler.
func NewCampaignHandler(campaignSvc *service.CampaignService, hub *Hub) *CampaignHandler {
	return &CampaignHandler{campaignSvc: campaignSvc, hub: hub}
}

// campaignStatus maps service errors shared by every campaign endpoint.
func campaignStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrCampaignNotFound), errors.Is(err, service.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCampaignNotActive):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownCountry):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidScenario):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCommand):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	c, err := h.campaignSvc.CreateCampaign(r.Context(), req)
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetCampaign handles GET /api/v1/campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaignSvc.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetState handles GET /api/v1/campaigns/{id}/state
func (h *CampaignHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ws, err := h.campaignSvc.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// ListWars handles GET /api/v1/campaigns/{id}/wars
func (h *CampaignHandler) ListWars(w http.ResponseWriter, r *http.Request) {
	wars, err := h.campaignSvc.Wars(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	if wars == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, wars)
}

// ListEvents handles GET /api/v1/campaigns/{id}/events?since=N
func (h *CampaignHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	since := 0
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative tick")
			return
		}
		since = n
	}
	events, err := h.campaignSvc.Events(r.Context(), r.PathValue("id"), since)
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ListTicks handles GET /api/v1/campaigns/{id}/ticks
func (h *CampaignHandler) ListTicks(w http.ResponseWriter, r *http.Request) {
	ticks, err := h.campaignSvc.Ticks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ticks)
}

// SetStatus handles PATCH /api/v1/campaigns/{id}/status
func (h *CampaignHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := seatFor(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case model.StatusActive, model.StatusPaused, model.StatusFinished:
	default:
		writeError(w, http.StatusBadRequest, "status must be active, paused or finished")
		return
	}

	if err := h.campaignSvc.SetStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	log.Info().Str("campaignId", id).Str("status", req.Status).Msg("Campaign status changed")
	h.hub.BroadcastToCampaign(id, WSEvent{
		Type:       EventStatusChanged,
		CampaignID: id,
		Data:       map[string]string{"status": req.Status},
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
