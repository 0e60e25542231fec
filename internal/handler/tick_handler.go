package handler

import (
	"net/http"

	"github.com/freeeve/grand-campaign/internal/service"
)

// TickHandler advances campaigns on demand.
type TickHandler struct {
	tickSvc *service.TickService
}

// NewTickHandler creates a TickHandler.
func NewTickHandler(tickSvc *service.TickService) *TickHandler {
	return &TickHandler{tickSvc: tickSvc}
}

// Advance handles POST /api/v1/campaigns/{id}/tick
func (h *TickHandler) Advance(w http.ResponseWriter, r *http.Request) {
	if _, ok := seatFor(w, r); !ok {
		return
	}
	res, err := h.tickSvc.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
