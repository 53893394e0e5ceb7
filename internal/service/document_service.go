package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/document"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

const resourceDocument = "document"

type DocumentService struct {
	workflow
}

func NewDocumentService(d WorkflowDeps) *DocumentService {
	return &DocumentService{workflow: newWorkflow("document", d)}
}

// ReviewOutcome is the reviewed document together with the owner's
// recomputed profile verification.
type ReviewOutcome struct {
	Document           *document.Submission
	ProfileVerified    bool
	VerificationStatus domain.VerificationStatus
}

// SubmitDocument stores a verification document for the caller. Submitting a
// type that already exists replaces it and resets it to pending.
func (s *DocumentService) SubmitDocument(ctx context.Context, docType document.Type, filePath string) (*document.Submission, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.SubmitDocument)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionDocumentSubmitted, resourceType: resourceDocument}

	var fields []string
	if !docType.IsValid() {
		fields = append(fields, "document_type: unknown type")
	}
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		fields = append(fields, "file_path: required")
	}
	if len(fields) > 0 {
		return nil, s.failure(ctx, actor, o, validationErr(fields...))
	}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "submit_document", func(ctx context.Context, q database.Querier) (*document.Submission, error) {
		repos := s.Repos(q)
		now := s.now()

		doc, err := repos.Documents.GetByUserAndType(ctx, actor.ID, docType)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			doc = &document.Submission{
				ID:           uuid.New(),
				UserID:       actor.ID,
				Role:         actor.Role,
				DocumentType: docType,
				FilePath:     filePath,
				Status:       document.StatusPending,
				SubmittedAt:  now,
			}
		case err != nil:
			return nil, err
		default:
			before = doc.Snapshot()
			doc.Resubmit(filePath, actor.Role, now)
		}

		if err := repos.Documents.Upsert(ctx, doc); err != nil {
			return nil, err
		}
		if _, _, err := s.reaggregate(ctx, repos, actor.ID); err != nil {
			return nil, err
		}
		return doc, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	doc := res.Data
	o.resourceID = doc.ID.String()
	s.succeeded(ctx, actor, o, before, doc.Snapshot(), string(doc.Status))
	s.notifyRole(ctx, domain.RoleOfficial, notification.Notification{
		Type:      notification.TypeDocument,
		Title:     "Document awaiting review",
		Message:   "A new " + string(doc.DocumentType) + " document was submitted.",
		ActionURL: "/documents/" + doc.ID.String(),
	})
	return doc, nil
}

// ReviewDocument approves or rejects a pending document and recomputes the
// owner's profile verification in the same transaction.
func (s *DocumentService) ReviewDocument(ctx context.Context, documentID uuid.UUID, decision domain.Decision, reason string) (*ReviewOutcome, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.ReviewDocument)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionDocumentReviewed, resourceType: resourceDocument, resourceID: documentID.String()}
	reason = strings.TrimSpace(reason)

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "review_document", func(ctx context.Context, q database.Querier) (*ReviewOutcome, error) {
		repos := s.Repos(q)

		doc, err := repos.Documents.GetByID(ctx, documentID)
		if err != nil {
			return nil, loadErr(resourceDocument, documentID, err)
		}
		if doc.UserID == actor.ID {
			return nil, &OwnershipError{Resource: resourceDocument, ResourceID: documentID.String(), Reason: "officials cannot review their own documents"}
		}

		owner, err := repos.Users.GetByID(ctx, doc.UserID)
		if err != nil {
			return nil, loadErr("user", doc.UserID, err)
		}
		before = doc.Snapshot()
		before["profile_verified"] = owner.ProfileVerified

		from := doc.Status
		if err := doc.Review(decision, reason, actor.ID, s.now()); err != nil {
			return nil, stateErr(resourceDocument, string(from), "review", err)
		}
		if err := repos.Documents.UpdateReview(ctx, doc); err != nil {
			return nil, err
		}

		verified, status, err := s.reaggregate(ctx, repos, doc.UserID)
		if err != nil {
			return nil, err
		}

		return &ReviewOutcome{Document: doc, ProfileVerified: verified, VerificationStatus: status}, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	out := res.Data
	after := out.Document.Snapshot()
	after["profile_verified"] = out.ProfileVerified
	s.succeeded(ctx, actor, o, before, after, string(out.Document.Status))

	msg := "Your " + string(out.Document.DocumentType) + " document was " + string(out.Document.Status) + "."
	if out.Document.RejectionReason != nil {
		msg += " Reason: " + *out.Document.RejectionReason
	}
	s.notify(ctx, notification.Notification{
		UserID:  out.Document.UserID,
		Type:    notification.TypeDocument,
		Title:   "Document reviewed",
		Message: msg,
	})
	return out, nil
}

// reaggregate recomputes userID's profile verification from every document
// they hold.
func (s *DocumentService) reaggregate(ctx context.Context, repos Repositories, userID uuid.UUID) (bool, domain.VerificationStatus, error) {
	docs, err := repos.Documents.ListByUser(ctx, userID)
	if err != nil {
		return false, "", err
	}
	verified, status := document.Aggregate(docs)
	if err := repos.Users.UpdateVerification(ctx, userID, verified, status); err != nil {
		return false, "", err
	}
	return verified, status, nil
}
