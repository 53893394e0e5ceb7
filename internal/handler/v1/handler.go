package v1

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/document"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/medicalleave"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/sportregistration"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegistrationWorkflow interface {
	ApproveRegistration(ctx context.Context, userID, officialID uuid.UUID) (*domain.User, error)
	RejectRegistration(ctx context.Context, userID, officialID uuid.UUID, reason string) (*domain.User, error)
}

type DocumentWorkflow interface {
	SubmitDocument(ctx context.Context, docType document.Type, filePath string) (*document.Submission, error)
	ReviewDocument(ctx context.Context, documentID uuid.UUID, decision domain.Decision, reason string) (*service.ReviewOutcome, error)
}

type MedicalLeaveWorkflow interface {
	SubmitMedicalLeave(ctx context.Context, cmd *medicalleave.SubmitCommand) (*medicalleave.Request, error)
	SpecialistReview(ctx context.Context, requestID uuid.UUID, rec domain.Decision, notes string) (*medicalleave.Request, error)
	CoachDecision(ctx context.Context, requestID uuid.UUID, dec domain.Decision, notes string) (*medicalleave.Request, error)
}

type ProfileChangeWorkflow interface {
	RequestProfileChange(ctx context.Context, changes profilechange.Changes) (*profilechange.Request, error)
	ReviewProfileChange(ctx context.Context, requestID uuid.UUID, decision domain.Decision, reason string) (*profilechange.Request, error)
}

type SportRegistrationWorkflow interface {
	RequestRegistration(ctx context.Context, sport string, coachID uuid.UUID) (*sportregistration.Registration, error)
	DecideRegistration(ctx context.Context, registrationID uuid.UUID, dec domain.Decision, reason string) (*sportregistration.Registration, error)
	CancelRegistration(ctx context.Context, registrationID uuid.UUID) (*sportregistration.Registration, error)
}

type AuditReader interface {
	Query(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error)
	Denials(ctx context.Context, from, to time.Time) ([]*domain.AuditLog, error)
	ActorActivity(ctx context.Context, actorID string, from, to time.Time) ([]*domain.AuditLog, error)
}

type Services struct {
	Registrations      RegistrationWorkflow
	Documents          DocumentWorkflow
	MedicalLeaves      MedicalLeaveWorkflow
	ProfileChanges     ProfileChangeWorkflow
	SportRegistrations SportRegistrationWorkflow
	Audit              AuditReader
}

type Handler struct {
	svc Services
	log *zap.Logger
	now func() time.Time
}

func NewHandler(svc Services, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log, now: time.Now}
}
