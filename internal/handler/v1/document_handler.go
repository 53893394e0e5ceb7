package v1

import (
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/document"
	"github.com/gin-gonic/gin"
)

type submitDocumentRequest struct {
	DocumentType string `json:"document_type" binding:"required"`
	FilePath     string `json:"file_path" binding:"required"`
}

type reviewRequest struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

type documentReviewResponse struct {
	Document           *document.Submission      `json:"document"`
	ProfileVerified    bool                      `json:"profile_verified"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
}

func (h *Handler) SubmitDocument(c *gin.Context) {
	var req submitDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Documents.SubmitDocument(c.Request.Context(), document.Type(req.DocumentType), req.FilePath)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, doc)
}

func (h *Handler) ReviewDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.svc.Documents.ReviewDocument(c.Request.Context(), id, domain.Decision(req.Decision), req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, documentReviewResponse{
		Document:           out.Document,
		ProfileVerified:    out.ProfileVerified,
		VerificationStatus: out.VerificationStatus,
	})
}
