package service

import (
	"context"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/sportregistration"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
)

const resourceSportRegistration = "sport_registration"

type SportRegistrationService struct {
	workflow
}

func NewSportRegistrationService(d WorkflowDeps) *SportRegistrationService {
	return &SportRegistrationService{workflow: newWorkflow("sport_registration", d)}
}

// RequestRegistration signs the calling athlete up for sport under coachID.
func (s *SportRegistrationService) RequestRegistration(ctx context.Context, sport string, coachID uuid.UUID) (*sportregistration.Registration, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.RequestSportSignup)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionSportRegistrationRequested, resourceType: resourceSportRegistration}

	sport = strings.TrimSpace(sport)
	if sport == "" {
		return nil, s.failure(ctx, actor, o, sportregistration.ErrSportRequired)
	}

	res := database.WithTransaction(ctx, s.Tx, "request_sport_registration", func(ctx context.Context, q database.Querier) (*sportregistration.Registration, error) {
		repos := s.Repos(q)

		coach, err := repos.Users.GetByID(ctx, coachID)
		if err != nil {
			return nil, loadErr("coach", coachID, err)
		}
		if coach.Role != domain.RoleCoach {
			return nil, validationErr("coach_id: user is not a coach")
		}

		active, err := repos.SportRegistrations.HasActive(ctx, actor.ID, sport)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, &ConflictError{Resource: resourceSportRegistration, Reason: sportregistration.ErrAlreadyRegistered.Error()}
		}

		r := &sportregistration.Registration{
			ID:        uuid.New(),
			AthleteID: actor.ID,
			CoachID:   coachID,
			Sport:     sport,
			Status:    sportregistration.StatusPending,
			CreatedAt: s.now(),
		}
		if err := repos.SportRegistrations.Create(ctx, r); err != nil {
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
	s.notify(ctx, notification.Notification{
		UserID:    r.CoachID,
		Type:      notification.TypeSportRegistration,
		Title:     "New sport registration",
		Message:   "An athlete asked to join your " + r.Sport + " group.",
		ActionURL: "/sport-registrations/" + r.ID.String(),
	})
	return r, nil
}

// DecideRegistration lets the assigned coach approve or reject a pending
// registration.
func (s *SportRegistrationService) DecideRegistration(ctx context.Context, registrationID uuid.UUID, dec domain.Decision, reason string) (*sportregistration.Registration, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.DecideSportSignup)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionSportRegistrationDecided, resourceType: resourceSportRegistration, resourceID: registrationID.String()}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "decide_sport_registration", func(ctx context.Context, q database.Querier) (*sportregistration.Registration, error) {
		repos := s.Repos(q)

		r, err := repos.SportRegistrations.GetByID(ctx, registrationID)
		if err != nil {
			return nil, loadErr(resourceSportRegistration, registrationID, err)
		}
		if r.CoachID != actor.ID {
			return nil, &OwnershipError{Resource: resourceSportRegistration, ResourceID: registrationID.String(), Reason: "not the assigned coach"}
		}
		before = r.Snapshot()

		from := r.Status
		if err := r.Decide(dec, strings.TrimSpace(reason), s.now()); err != nil {
			return nil, stateErr(resourceSportRegistration, string(from), "decide", err)
		}
		if err := repos.SportRegistrations.UpdateStatus(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	r := res.Data
	s.succeeded(ctx, actor, o, before, r.Snapshot(), decisionStatus(dec))
	s.notify(ctx, notification.Notification{
		UserID:  r.AthleteID,
		Type:    notification.TypeSportRegistration,
		Title:   "Sport registration " + string(r.Status),
		Message: "Your " + r.Sport + " registration was " + string(r.Status) + ".",
	})
	return r, nil
}

// CancelRegistration withdraws the caller's own pending registration.
func (s *SportRegistrationService) CancelRegistration(ctx context.Context, registrationID uuid.UUID) (*sportregistration.Registration, error) {
	actor, err := s.Guard.RequirePermission(ctx, permission.CancelSportSignup)
	if err != nil {
		return nil, err
	}

	o := op{action: domain.ActionSportRegistrationCancelled, resourceType: resourceSportRegistration, resourceID: registrationID.String()}
	if err := s.Guard.RequireOwnership(ctx, "sport_registrations", registrationID.String(), "athlete_id", actor.ID); err != nil {
		return nil, s.failure(ctx, actor, o, err)
	}

	var before map[string]any
	res := database.WithTransaction(ctx, s.Tx, "cancel_sport_registration", func(ctx context.Context, q database.Querier) (*sportregistration.Registration, error) {
		repos := s.Repos(q)

		r, err := repos.SportRegistrations.GetByID(ctx, registrationID)
		if err != nil {
			return nil, loadErr(resourceSportRegistration, registrationID, err)
		}
		before = r.Snapshot()

		from := r.Status
		if err := r.Cancel(s.now()); err != nil {
			return nil, stateErr(resourceSportRegistration, string(from), "cancel", err)
		}
		if err := repos.SportRegistrations.UpdateStatus(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	})
	if !res.Success {
		return nil, s.failure(ctx, actor, o, res.Err)
	}

	r := res.Data
	s.succeeded(ctx, actor, o, before, r.Snapshot(), string(r.Status))
	s.notify(ctx, notification.Notification{
		UserID:  r.CoachID,
		Type:    notification.TypeSportRegistration,
		Title:   "Sport registration cancelled",
		Message: "An athlete withdrew their " + r.Sport + " registration.",
	})
	return r, nil
}
