package service

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

const resourceRegistration = "registration"

type RegistrationService struct {
	workflow
}

func NewRegistrationService(d WorkflowDeps) *RegistrationService {
	return &RegistrationService{workflow: newWorkflow("registration", d)}
}

// ApproveRegistration verifies userID's registration. officialID must be the
// authenticated official; the approved role is taken from the user's most
// recent document submission.
func (s *RegistrationService) ApproveRegistration(ctx context.Context, userID, officialID uuid.UUID) (*domain.User, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.ApproveRegistration)
	if err != nil {
		return nil, err
	}

	o := op{
		action:          domain.ActionApprovalGranted,
		resourceType:    resourceRegistration,
		resourceID:      userID.String(),
		ownershipAction: domain.ActionApprovalDenied,
	}

	if officialID != actor.ID {
		return nil, s.failure(ctx, actor, o, &OwnershipError{
			Resource:   resourceRegistration,
			ResourceID: userID.String(),
			Reason:     "official id does not match the authenticated official",
		})
	}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "approve_registration", func(ctx context.Context, q database.Querier) (*domain.User, error) {
		repos := s.Repos(q)

		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return nil, loadErr("user", userID, err)
		}
		if u.RegistrationVerified {
			return nil, &TransitionError{Resource: resourceRegistration, From: "verified", Action: "approve"}
		}
		before = u.RegistrationSnapshot()

		latest, err := repos.Documents.LatestByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.Role.IsValid() {
			u.Role = latest.Role
		}

		now := s.now()
		u.RegistrationVerified = true
		u.RegistrationRejected = false
		u.RejectionReason = nil
		u.ProfileVerified = true
		u.VerificationStatus = domain.VerificationVerified
		u.RegistrationDecidedBy = &actor.ID
		u.RegistrationDecidedAt = &now

		if err := repos.Users.UpdateRegistration(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	})
	if !res.Success {
		o.action = domain.ActionApprovalDenied
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	u := res.Data
	s.succeeded(ctx, actor, o, before, u.RegistrationSnapshot(), "approved")
	s.notify(ctx, notification.Notification{
		UserID:  u.ID,
		Type:    notification.TypeRegistration,
		Title:   "Registration approved",
		Message: "Your registration has been verified. Welcome aboard.",
	})
	return u, nil
}

// RejectRegistration marks userID's registration rejected with reason. A
// rejected user may be approved later.
func (s *RegistrationService) RejectRegistration(ctx context.Context, userID, officialID uuid.UUID, reason string) (*domain.User, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.RejectRegistration)
	if err != nil {
		return nil, err
	}

	o := op{
		action:          domain.ActionRejectionIssued,
		resourceType:    resourceRegistration,
		resourceID:      userID.String(),
		ownershipAction: domain.ActionApprovalDenied,
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, s.failure(ctx, actor, o, validationErr("reason: required when rejecting"))
	}
	if officialID != actor.ID {
		return nil, s.failure(ctx, actor, o, &OwnershipError{
			Resource:   resourceRegistration,
			ResourceID: userID.String(),
			Reason:     "official id does not match the authenticated official",
		})
	}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "reject_registration", func(ctx context.Context, q database.Querier) (*domain.User, error) {
		repos := s.Repos(q)

		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return nil, loadErr("user", userID, err)
		}
		if u.RegistrationRejected {
			return nil, &TransitionError{Resource: resourceRegistration, From: "rejected", Action: "reject"}
		}
		before = u.RegistrationSnapshot()

		now := s.now()
		u.RegistrationVerified = false
		u.RegistrationRejected = true
		u.RejectionReason = &reason
		u.ProfileVerified = false
		u.VerificationStatus = domain.VerificationPending
		u.RegistrationDecidedBy = &actor.ID
		u.RegistrationDecidedAt = &now

		if err := repos.Users.UpdateRegistration(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	u := res.Data
	s.succeeded(ctx, actor, o, before, u.RegistrationSnapshot(), "rejected")
	s.notify(ctx, notification.Notification{
		UserID:  u.ID,
		Type:    notification.TypeRegistration,
		Title:   "Registration rejected",
		Message: "Your registration was rejected: " + reason,
	})
	return u, nil
}
