package service

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

const resourceProfileChange = "profile_change"

type ProfileChangeService struct {
	workflow
}

func NewProfileChangeService(d WorkflowDeps) *ProfileChangeService {
	return &ProfileChangeService{workflow: newWorkflow("profile_change", d)}
}

// RequestProfileChange files a change to the caller's own profile for an
// official to review. Nothing is applied until approval.
func (s *ProfileChangeService) RequestProfileChange(ctx context.Context, changes profilechange.Changes) (*profilechange.Request, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.RequestProfileEdit)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionProfileChangeRequested, resourceType: resourceProfileChange}

	if err := changes.Validate(); err != nil {
		return nil, s.failure(ctx, actor, o, err)
	}

	res := database.WithTransaction(ctx, s.Tx, "request_profile_change", func(ctx context.Context, q database.Querier) (*profilechange.Request, error) {
		r := &profilechange.Request{
			ID:        uuid.New(),
			UserID:    actor.ID,
			Changes:   changes,
			Status:    profilechange.StatusPending,
			CreatedAt: s.now(),
		}
		if err := s.Repos(q).ProfileChanges.Create(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	r := res.Data
	o.resourceID = r.ID.String()
	s.succeeded(ctx, actor, o, nil, r.Snapshot(), string(r.Status))
	s.notifyRole(ctx, domain.RoleOfficial, notification.Notification{
		Type:      notification.TypeProfileChange,
		Title:     "Profile change awaiting review",
		Message:   "A user asked to change: " + strings.Join(r.Changes.Fields(), ", ") + ".",
		ActionURL: "/profile-changes/" + r.ID.String(),
	})
	return r, nil
}

// ReviewProfileChange approves or rejects a pending request. Approval merges
// the requested fields into the user's profile in the same transaction.
func (s *ProfileChangeService) ReviewProfileChange(ctx context.Context, requestID uuid.UUID, decision domain.Decision, reason string) (*profilechange.Request, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.ReviewProfileEdit)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionProfileChangeReviewed, resourceType: resourceProfileChange, resourceID: requestID.String()}
	reason = strings.TrimSpace(reason)

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "review_profile_change", func(ctx context.Context, q database.Querier) (*profilechange.Request, error) {
		repos := s.Repos(q)

		r, err := repos.ProfileChanges.GetByID(ctx, requestID)
		if err != nil {
			return nil, loadErr(resourceProfileChange, requestID, err)
		}
		if r.UserID == actor.ID {
			return nil, &OwnershipError{Resource: resourceProfileChange, ResourceID: requestID.String(), Reason: "officials cannot review their own profile changes"}
		}
		before = r.Snapshot()

		from := r.Status
		if err := r.Review(decision, reason, actor.ID, s.now()); err != nil {
			return nil, stateErr(resourceProfileChange, string(from), "review", err)
		}
		if err := repos.ProfileChanges.UpdateReview(ctx, r); err != nil {
			return nil, err
		}
		if r.Status == profilechange.StatusApproved {
			if err := repos.Users.ApplyProfileChanges(ctx, r.UserID, r.Changes); err != nil {
				return nil, err
			}
		}
		return r, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	r := res.Data
	s.succeeded(ctx, actor, o, before, r.Snapshot(), string(r.Status))

	msg := "Your profile change request was " + string(r.Status) + "."
	if r.RejectionReason != nil {
		msg += " Reason: " + *r.RejectionReason
	}
	s.notify(ctx, notification.Notification{
		UserID:  r.UserID,
		Type:    notification.TypeProfileChange,
		Title:   "Profile change reviewed",
		Message: msg,
	})
	return r, nil
}
