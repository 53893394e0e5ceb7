package service

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/document"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/medicalleave"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/sportregistration"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	IDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error)

	// UpdateRegistration writes the registration decision fields, role and
	// profile verification flags of u.
	UpdateRegistration(ctx context.Context, u *domain.User) error
	UpdateVerification(ctx context.Context, id uuid.UUID, verified bool, status domain.VerificationStatus) error
	ApplyProfileChanges(ctx context.Context, id uuid.UUID, changes profilechange.Changes) error
}

// Repositories is every store a workflow touches, bound to one Querier so a
// unit of work sees a single transaction.
type Repositories struct {
	Users              UserRepository
	Documents          document.Repository
	MedicalLeaves      medicalleave.Repository
	ProfileChanges     profilechange.Repository
	SportRegistrations sportregistration.Repository
}

type RepositoryFactory func(q database.Querier) Repositories

type WorkflowDeps struct {
	Guard    *Guard
	Tx       *database.TxExecutor
	Repos    RepositoryFactory
	DB       database.Querier
	Audit    AuditLogger
	Notifier notification.Sink
	Metrics  *metrics.Collector
	Log      *zap.Logger
}

// workflow carries the plumbing shared by every approval workflow:
// guard → transaction → audit → notify.
type workflow struct {
	WorkflowDeps
	name string
	now  func() time.Time
}

func newWorkflow(name string, d WorkflowDeps) workflow {
	return workflow{WorkflowDeps: d, name: name, now: func() time.Time { return time.Now().UTC() }}
}

// op describes the audited operation a failure belongs to.
type op struct {
	action       domain.AuditAction
	resourceType string
	resourceID   string
	// ownershipAction replaces action when the failure is an ownership
	// denial. Defaults to OWNERSHIP_DENIED.
	ownershipAction domain.AuditAction
}

// failure audits err against o and returns the error to hand back to the
// caller. Authentication and permission denials were already audited by the
// guard.
func (w *workflow) failure(ctx context.Context, actor *domain.Actor, o op, err error) error {
	kind := KindOf(err)

	// Unwrap the executor's envelope for client errors so callers see the
	// domain message.
	var txErr *database.TxError
	if kind != KindInternal && kind != KindConflict && errors.As(err, &txErr) {
		err = txErr.Err
	}

	e := actorEntry(actor, o.action, o.resourceType, o.resourceID)
	switch kind {
	case KindUnauthenticated, KindForbidden:
		return err
	case KindOwnership:
		e.Action = domain.ActionOwnershipDenied
		if o.ownershipAction != "" {
			e.Action = o.ownershipAction
		}
		e.Result = domain.AuditDenied
		e.DenialReason = err.Error()
	case KindInvalidTransition, KindNotFound, KindValidation:
		e.Result = domain.AuditDenied
		e.DenialReason = err.Error()
	case KindConflict:
		e.Result = domain.AuditDenied
		e.DenialReason = err.Error()
		logger.FromContext(ctx, w.Log).Warn("workflow conflict",
			zap.String("workflow", w.name),
			zap.String("action", string(o.action)),
			zap.String("resource_id", o.resourceID),
			zap.Error(err),
		)
	default:
		e.Result = domain.AuditError
		e.ErrorMessage = err.Error()
		logger.FromContext(ctx, w.Log).Error("workflow failed",
			zap.String("workflow", w.name),
			zap.String("action", string(o.action)),
			zap.String("resource_id", o.resourceID),
			zap.Error(err),
		)
	}

	w.Audit.LogAsync(ctx, e)
	return err
}

func (w *workflow) succeeded(ctx context.Context, actor *domain.Actor, o op, before, after any, status string) {
	e := actorEntry(actor, o.action, o.resourceType, o.resourceID)
	e.StatusBefore = before
	e.StatusAfter = after
	w.Audit.LogAsync(ctx, e)

	if w.Metrics != nil {
		w.Metrics.WorkflowTransitions.WithLabelValues(w.name, status).Inc()
	}
}

// notify delivers after commit. Failures are logged and never undo the
// committed change.
func (w *workflow) notify(ctx context.Context, batch ...notification.Notification) {
	if w.Notifier == nil || len(batch) == 0 {
		return
	}
	if err := w.Notifier.Send(ctx, batch); err != nil {
		w.Log.Warn("notification delivery failed",
			zap.String("workflow", w.name),
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
	}
}

// notifyRole sends n to every user holding role.
func (w *workflow) notifyRole(ctx context.Context, role domain.Role, n notification.Notification) {
	ids, err := w.Repos(w.DB).Users.IDsByRole(ctx, role)
	if err != nil {
		w.Log.Warn("listing notification recipients failed", zap.String("role", string(role)), zap.Error(err))
		return
	}
	batch := make([]notification.Notification, 0, len(ids))
	for _, id := range ids {
		n.UserID = id
		batch = append(batch, n)
	}
	w.notify(ctx, batch...)
}

func decisionStatus(d domain.Decision) string {
	if d == domain.DecisionApprove {
		return "approved"
	}
	return "rejected"
}
