package v1

import (
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/gin-gonic/gin"
)

type auditLogsResponse struct {
	Items []*domain.AuditLog `json:"items"`
	Count int                `json:"count"`
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	from, ok := parseQueryTime(c, "from")
	if !ok {
		return
	}
	to, ok := parseQueryTime(c, "to")
	if !ok {
		return
	}

	f := domain.AuditFilter{From: from, To: to, Limit: parseQueryInt(c, "limit", 0)}
	if v := c.Query("actor_id"); v != "" {
		f.ActorID = &v
	}
	if v := c.Query("action"); v != "" {
		a := domain.AuditAction(v)
		f.Action = &a
	}
	if v := c.Query("resource_type"); v != "" {
		f.ResourceType = &v
	}
	if v := c.Query("result"); v != "" {
		r := domain.AuditResult(v)
		f.Result = &r
	}

	logs, err := h.svc.Audit.Query(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, auditLogsResponse{Items: logs, Count: len(logs)})
}

func (h *Handler) ListDenials(c *gin.Context) {
	from, to, ok := parseRange(c, h.now())
	if !ok {
		return
	}

	logs, err := h.svc.Audit.Denials(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, auditLogsResponse{Items: logs, Count: len(logs)})
}

func (h *Handler) ListActorActivity(c *gin.Context) {
	from, to, ok := parseRange(c, h.now())
	if !ok {
		return
	}

	logs, err := h.svc.Audit.ActorActivity(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, auditLogsResponse{Items: logs, Count: len(logs)})
}
