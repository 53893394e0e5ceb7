package service

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/medicalleave"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

const resourceMedicalLeave = "medical_leave"

type MedicalLeaveService struct {
	workflow
}

func NewMedicalLeaveService(d WorkflowDeps) *MedicalLeaveService {
	return &MedicalLeaveService{workflow: newWorkflow("medical_leave", d)}
}

// SubmitMedicalLeave files a leave request from the calling athlete to a
// coach they train with. Every specialist is told a review is waiting.
func (s *MedicalLeaveService) SubmitMedicalLeave(ctx context.Context, cmd *medicalleave.SubmitCommand) (*medicalleave.Request, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.SubmitMedicalLeave)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionMedicalLeaveSubmitted, resourceType: resourceMedicalLeave}

	cmd.Reason = strings.TrimSpace(cmd.Reason)
	if err := cmd.Validate(); err != nil {
		return nil, s.failure(ctx, actor, o, err)
	}
	if err := s.Guard.RequireRelationship(ctx, cmd.CoachID, actor.ID, CoachOfAthlete); err != nil {
		return nil, s.failure(ctx, actor, o, err)
	}

	res := database.WithTransaction(ctx, s.Tx, "submit_medical_leave", func(ctx context.Context, q database.Querier) (*medicalleave.Request, error) {
		now := s.now()
		r := &medicalleave.Request{
			ID:           uuid.New(),
			AthleteID:    actor.ID,
			CoachID:      cmd.CoachID,
			StartDate:    cmd.StartDate,
			EndDate:      cmd.EndDate,
			Reason:       cmd.Reason,
			DocumentPath: cmd.DocumentPath,
			Status:       medicalleave.StatusPendingSpecialistReview,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.Repos(q).MedicalLeaves.Create(ctx, r); err != nil {
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
	s.notifyRole(ctx, domain.RoleSpecialist, notification.Notification{
		Type:      notification.TypeMedicalLeave,
		Title:     "Medical leave awaiting review",
		Message:   "An athlete submitted a medical leave request.",
		ActionURL: "/medical-leave/" + r.ID.String(),
	})
	return r, nil
}

// SpecialistReview records a specialist's recommendation. Rejection ends the
// request; approval passes it to the coach.
func (s *MedicalLeaveService) SpecialistReview(ctx context.Context, requestID uuid.UUID, rec domain.Decision, notes string) (*medicalleave.Request, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.ReviewMedicalLeave)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionMedicalLeaveReviewed, resourceType: resourceMedicalLeave, resourceID: requestID.String()}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "review_medical_leave", func(ctx context.Context, q database.Querier) (*medicalleave.Request, error) {
		repos := s.Repos(q)

		r, err := repos.MedicalLeaves.GetByID(ctx, requestID)
		if err != nil {
			return nil, loadErr(resourceMedicalLeave, requestID, err)
		}
		if r.SpecialistID != nil && *r.SpecialistID != actor.ID {
			return nil, &OwnershipError{Resource: resourceMedicalLeave, ResourceID: requestID.String(), Reason: "assigned to another specialist"}
		}
		if err := s.Guard.RequireRelationship(ctx, actor.ID, r.AthleteID, SpecialistOfClient); err != nil {
			return nil, err
		}
		before = r.Snapshot()

		now := s.now()
		from := r.Status
		if err := r.ApplySpecialistReview(rec, actor.ID, now); err != nil {
			return nil, stateErr(resourceMedicalLeave, string(from), "review", err)
		}
		if err := repos.MedicalLeaves.UpdateStatus(ctx, r); err != nil {
			return nil, err
		}
		if err := repos.MedicalLeaves.InsertSpecialistReview(ctx, &medicalleave.SpecialistReview{
			ID:             uuid.New(),
			RequestID:      r.ID,
			SpecialistID:   actor.ID,
			Recommendation: rec,
			Notes:          optional(strings.TrimSpace(notes)),
			ReviewedAt:     now,
		}); err != nil {
			return nil, err
		}
		return r, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	r := res.Data
	s.succeeded(ctx, actor, o, before, r.Snapshot(), string(r.Status))

	batch := []notification.Notification{{
		UserID:  r.AthleteID,
		Type:    notification.TypeMedicalLeave,
		Title:   "Medical leave reviewed",
		Message: "A specialist reviewed your medical leave request. Status: " + string(r.Status) + ".",
	}}
	if r.Status == medicalleave.StatusPendingCoachDecision {
		batch = append(batch, notification.Notification{
			UserID:    r.CoachID,
			Type:      notification.TypeMedicalLeave,
			Title:     "Medical leave awaiting your decision",
			Message:   "A specialist recommended approving a medical leave request.",
			ActionURL: "/medical-leave/" + r.ID.String(),
		})
	}
	s.notify(ctx, batch...)
	return r, nil
}

// CoachDecision records the assigned coach's final decision.
func (s *MedicalLeaveService) CoachDecision(ctx context.Context, requestID uuid.UUID, dec domain.Decision, notes string) (*medicalleave.Request, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.DecideMedicalLeave)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionMedicalLeaveDecided, resourceType: resourceMedicalLeave, resourceID: requestID.String()}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "decide_medical_leave", func(ctx context.Context, q database.Querier) (*medicalleave.Request, error) {
		repos := s.Repos(q)

		r, err := repos.MedicalLeaves.GetByID(ctx, requestID)
		if err != nil {
			return nil, loadErr(resourceMedicalLeave, requestID, err)
		}
		if r.CoachID != actor.ID {
			return nil, &OwnershipError{Resource: resourceMedicalLeave, ResourceID: requestID.String(), Reason: "not the assigned coach"}
		}
		before = r.Snapshot()

		now := s.now()
		from := r.Status
		if err := r.ApplyCoachDecision(dec, now); err != nil {
			return nil, stateErr(resourceMedicalLeave, string(from), "decide", err)
		}
		if err := repos.MedicalLeaves.UpdateStatus(ctx, r); err != nil {
			return nil, err
		}
		if err := repos.MedicalLeaves.InsertCoachDecision(ctx, &medicalleave.CoachDecision{
			ID:        uuid.New(),
			RequestID: r.ID,
			CoachID:   actor.ID,
			Decision:  dec,
			Notes:     optional(strings.TrimSpace(notes)),
			DecidedAt: now,
		}); err != nil {
			return nil, err
		}
		return r, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	r := res.Data
	s.succeeded(ctx, actor, o, before, r.Snapshot(), decisionStatus(dec))

	batch := []notification.Notification{{
		UserID:  r.AthleteID,
		Type:    notification.TypeMedicalLeave,
		Title:   "Medical leave " + string(r.Status),
		Message: "Your coach has " + string(r.Status) + " your medical leave request.",
	}}
	if r.SpecialistID != nil {
		batch = append(batch, notification.Notification{
			UserID:  *r.SpecialistID,
			Type:    notification.TypeMedicalLeave,
			Title:   "Medical leave decided",
			Message: "The coach has " + string(r.Status) + " a request you reviewed.",
		})
	}
	s.notify(ctx, batch...)
	return r, nil
}
