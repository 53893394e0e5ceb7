package medicalleave

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/google/uuid"
)

// State transitions:
//
//	pending_specialist_review → pending_coach_decision (specialist approves)
//	pending_specialist_review → rejected               (specialist rejects)
//	pending_coach_decision    → approved | rejected    (coach decides)
//	specialist_reviewed       → approved | rejected    (rows written before the split status existed)
type Status string

const (
	StatusPendingSpecialistReview Status = "pending_specialist_review"
	StatusPendingCoachDecision    Status = "pending_coach_decision"
	StatusSpecialistReviewed      Status = "specialist_reviewed"
	StatusApproved                Status = "approved"
	StatusRejected                Status = "rejected"
)

type Request struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AthleteID    uuid.UUID  `db:"athlete_id" json:"athlete_id"`
	CoachID      uuid.UUID  `db:"coach_id" json:"coach_id"`
	SpecialistID *uuid.UUID `db:"specialist_id" json:"specialist_id"`

	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Reason       string    `db:"reason" json:"reason"`
	DocumentPath *string   `db:"document_path" json:"document_path"`
	Status       Status    `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type SpecialistReview struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	RequestID      uuid.UUID       `db:"request_id" json:"request_id"`
	SpecialistID   uuid.UUID       `db:"specialist_id" json:"specialist_id"`
	Recommendation domain.Decision `db:"recommendation" json:"recommendation"`
	Notes          *string         `db:"notes" json:"notes"`
	ReviewedAt     time.Time       `db:"reviewed_at" json:"reviewed_at"`
}

type CoachDecision struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	RequestID uuid.UUID       `db:"request_id" json:"request_id"`
	CoachID   uuid.UUID       `db:"coach_id" json:"coach_id"`
	Decision  domain.Decision `db:"decision" json:"decision"`
	Notes     *string         `db:"notes" json:"notes"`
	DecidedAt time.Time       `db:"decided_at" json:"decided_at"`
}

func (r *Request) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPendingSpecialistReview: {StatusPendingCoachDecision, StatusRejected},
		StatusPendingCoachDecision:    {StatusApproved, StatusRejected},
		StatusSpecialistReviewed:      {StatusApproved, StatusRejected},
		StatusApproved:                {},
		StatusRejected:                {},
	}

	for _, s := range allowed[r.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// ApplySpecialistReview records the reviewing specialist and moves the request
// on. A rejection here is final; an approval hands it to the coach.
func (r *Request) ApplySpecialistReview(rec domain.Decision, specialistID uuid.UUID, at time.Time) error {
	if r.Status != StatusPendingSpecialistReview {
		return ErrInvalidStatusTransition
	}

	var next Status
	switch rec {
	case domain.DecisionApprove:
		next = StatusPendingCoachDecision
	case domain.DecisionReject:
		next = StatusRejected
	default:
		return domain.ErrInvalidDecision
	}

	r.Status = next
	r.SpecialistID = &specialistID
	r.UpdatedAt = at
	return nil
}

func (r *Request) ApplyCoachDecision(dec domain.Decision, at time.Time) error {
	if r.Status != StatusPendingCoachDecision && r.Status != StatusSpecialistReviewed {
		return ErrInvalidStatusTransition
	}

	switch dec {
	case domain.DecisionApprove:
		r.Status = StatusApproved
	case domain.DecisionReject:
		r.Status = StatusRejected
	default:
		return domain.ErrInvalidDecision
	}
	r.UpdatedAt = at
	return nil
}

func (r *Request) Snapshot() map[string]any {
	snap := map[string]any{"status": string(r.Status)}
	if r.SpecialistID != nil {
		snap["specialist_id"] = r.SpecialistID.String()
	}
	return snap
}

type SubmitCommand struct {
	CoachID      uuid.UUID
	StartDate    time.Time
	EndDate      time.Time
	Reason       string
	DocumentPath *string
}

func (c *SubmitCommand) Validate() error {
	if c.Reason == "" {
		return ErrReasonRequired
	}
	if c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}
