package v1

import (
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registrationDecisionRequest struct {
	// OfficialID defaults to the caller when omitted.
	OfficialID *uuid.UUID `json:"official_id"`
	Reason     string     `json:"reason"`
}

func (r registrationDecisionRequest) official(c *gin.Context) uuid.UUID {
	if r.OfficialID != nil {
		return *r.OfficialID
	}
	if claims := auth.ClaimsFromContext(c.Request.Context()); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}

func (h *Handler) ApproveRegistration(c *gin.Context) {
	userID, ok := parseUUID(c, "userId")
	if !ok {
		return
	}
	var req registrationDecisionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.Registrations.ApproveRegistration(c.Request.Context(), userID, req.official(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, u)
}

func (h *Handler) RejectRegistration(c *gin.Context) {
	userID, ok := parseUUID(c, "userId")
	if !ok {
		return
	}
	var req registrationDecisionRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.Registrations.RejectRegistration(c.Request.Context(), userID, req.official(c), req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, u)
}
