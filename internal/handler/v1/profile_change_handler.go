package v1

import (
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/gin-gonic/gin"
)

type profileChangeRequest struct {
	Changes profilechange.Changes `json:"changes" binding:"required"`
}

func (h *Handler) RequestProfileChange(c *gin.Context) {
	var req profileChangeRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.ProfileChanges.RequestProfileChange(c.Request.Context(), req.Changes)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, r)
}

func (h *Handler) ReviewProfileChange(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.ProfileChanges.ReviewProfileChange(c.Request.Context(), id, domain.Decision(req.Decision), req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, r)
}
