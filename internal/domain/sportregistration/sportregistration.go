package sportregistration

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/google/uuid"
)

// State transitions:
//
//	pending → approved | rejected   (assigned coach)
//	pending → cancelled             (owning athlete)
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

type Registration struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AthleteID uuid.UUID `db:"athlete_id" json:"athlete_id"`
	CoachID   uuid.UUID `db:"coach_id" json:"coach_id"`
	Sport     string    `db:"sport" json:"sport"`
	Status    Status    `db:"status" json:"status"`

	DecisionReason *string    `db:"decision_reason" json:"decision_reason"`
	DecidedAt      *time.Time `db:"decided_at" json:"decided_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (r *Registration) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved:  {},
		StatusRejected:  {},
		StatusCancelled: {},
	}

	for _, s := range allowed[r.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (r *Registration) Decide(dec domain.Decision, reason string, at time.Time) error {
	var next Status
	switch dec {
	case domain.DecisionApprove:
		next = StatusApproved
	case domain.DecisionReject:
		next = StatusRejected
	default:
		return domain.ErrInvalidDecision
	}

	if !r.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	r.Status = next
	r.DecidedAt = &at
	if reason != "" {
		r.DecisionReason = &reason
	}
	return nil
}

func (r *Registration) Cancel(at time.Time) error {
	if !r.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	r.Status = StatusCancelled
	r.DecidedAt = &at
	return nil
}

func (r *Registration) Snapshot() map[string]any {
	return map[string]any{
		"status": string(r.Status),
		"sport":  r.Sport,
	}
}
