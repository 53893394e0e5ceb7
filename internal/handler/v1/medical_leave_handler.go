package v1

import (
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/medicalleave"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type submitMedicalLeaveRequest struct {
	CoachID      uuid.UUID `json:"coach_id" binding:"required"`
	StartDate    string    `json:"start_date" binding:"required"`
	EndDate      string    `json:"end_date" binding:"required"`
	Reason       string    `json:"reason"`
	DocumentPath *string   `json:"document_path"`
}

type leaveReviewRequest struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

func (h *Handler) SubmitMedicalLeave(c *gin.Context) {
	var req submitMedicalLeaveRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid start_date: must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid end_date: must be YYYY-MM-DD")
		return
	}

	r, err := h.svc.MedicalLeaves.SubmitMedicalLeave(c.Request.Context(), &medicalleave.SubmitCommand{
		CoachID:      req.CoachID,
		StartDate:    start,
		EndDate:      end,
		Reason:       req.Reason,
		DocumentPath: req.DocumentPath,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, r)
}

func (h *Handler) SpecialistReview(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req leaveReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.MedicalLeaves.SpecialistReview(c.Request.Context(), id, domain.Decision(req.Decision), req.Notes)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, r)
}

func (h *Handler) CoachDecision(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req leaveReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.MedicalLeaves.CoachDecision(c.Request.Context(), id, domain.Decision(req.Decision), req.Notes)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, r)
}
