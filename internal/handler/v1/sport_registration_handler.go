package v1

import (
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type sportRegistrationRequest struct {
	Sport   string    `json:"sport"`
	CoachID uuid.UUID `json:"coach_id" binding:"required"`
}

func (h *Handler) RequestSportRegistration(c *gin.Context) {
	var req sportRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.SportRegistrations.RequestRegistration(c.Request.Context(), req.Sport, req.CoachID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, r)
}

func (h *Handler) DecideSportRegistration(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.SportRegistrations.DecideRegistration(c.Request.Context(), id, domain.Decision(req.Decision), req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, r)
}

func (h *Handler) CancelSportRegistration(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.SportRegistrations.CancelRegistration(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, r)
}
