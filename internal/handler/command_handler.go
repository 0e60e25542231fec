package handler

import (
	"errors"
	"net/http"

	"github.com/freeeve/grand-campaign/internal/auth"
	"github.com/freeeve/grand-campaign/internal/service"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

// CommandHandler handles command submission for the authenticated country.
type CommandHandler struct {
	commandSvc *service.CommandService
	hub        *Hub
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(commandSvc *service.CommandService, hub *Hub) *CommandHandler {
	return &CommandHandler{commandSvc: commandSvc, hub: hub}
}

// seatFor returns the caller's seat if it belongs to the campaign in the
// path, writing an error response otherwise.
func seatFor(w http.ResponseWriter, r *http.Request) (auth.Seat, bool) {
	seat, err := auth.SeatForCampaign(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, auth.ErrNoSeat):
		writeError(w, http.StatusUnauthorized, err.Error())
		return seat, false
	case err != nil:
		writeError(w, http.StatusForbidden, err.Error())
		return seat, false
	}
	return seat, true
}

// SubmitCommands handles POST /api/v1/campaigns/{id}/commands
func (h *CommandHandler) SubmitCommands(w http.ResponseWriter, r *http.Request) {
	seat, ok := seatFor(w, r)
	if !ok {
		return
	}

	var req service.CommandSubmission
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.commandSvc.SubmitCommands(r.Context(), seat.CampaignID, seat.Country, req.Commands); err != nil {
		body := map[string]string{"error": err.Error()}
		var ae *warfare.ActionError
		if errors.As(err, &ae) {
			body["error_kind"] = string(ae.Kind)
		}
		writeJSON(w, campaignStatus(err), body)
		return
	}

	h.hub.BroadcastToCountry(seat.CampaignID, seat.Country, WSEvent{
		Type:       EventCommandsQueued,
		CampaignID: seat.CampaignID,
		Data:       req.Commands,
	})
	writeJSON(w, http.StatusAccepted, map[string]any{
		"queued":  len(req.Commands),
		"country": seat.Country,
	})
}

// AvailableCommands handles GET /api/v1/campaigns/{id}/commands/available
func (h *CommandHandler) AvailableCommands(w http.ResponseWriter, r *http.Request) {
	seat, ok := seatFor(w, r)
	if !ok {
		return
	}
	cmds, err := h.commandSvc.AvailableCommands(r.Context(), seat.CampaignID, seat.Country)
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	if cmds == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, cmds)
}
