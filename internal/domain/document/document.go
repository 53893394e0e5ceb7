package document

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/google/uuid"
)

type Type string

const (
	TypeIdentity           Type = "identity"
	TypeMedicalCertificate Type = "medical_certificate"
	TypeCoachingLicense    Type = "coaching_license"
	TypeSpecialistLicense  Type = "specialist_license"
	TypeClubMembership     Type = "club_membership"
	TypeOfficialMandate    Type = "official_mandate"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeIdentity, TypeMedicalCertificate, TypeCoachingLicense,
		TypeSpecialistLicense, TypeClubMembership, TypeOfficialMandate:
		return true
	}
	return false
}

// State transitions:
//
//	pending → approved
//	pending → rejected
//
// A resubmission of the same document type replaces the row and puts it back
// to pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Submission struct {
	ID     uuid.UUID   `db:"id" json:"id"`
	UserID uuid.UUID   `db:"user_id" json:"user_id"`
	Role   domain.Role `db:"role" json:"role"`

	DocumentType Type   `db:"document_type" json:"document_type"`
	FilePath     string `db:"file_path" json:"file_path"`
	Status       Status `db:"status" json:"status"`

	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at"`
	SubmittedAt     time.Time  `db:"submitted_at" json:"submitted_at"`
}

func (s *Submission) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {},
		StatusRejected: {},
	}

	for _, st := range allowed[s.Status] {
		if st == next {
			return true
		}
	}
	return false
}

// Review applies an official's decision. Only pending documents can be
// reviewed and a rejection must carry a reason.
func (s *Submission) Review(decision domain.Decision, reason string, by uuid.UUID, at time.Time) error {
	var next Status
	switch decision {
	case domain.DecisionApprove:
		next = StatusApproved
	case domain.DecisionReject:
		if reason == "" {
			return ErrReasonRequired
		}
		next = StatusRejected
	default:
		return domain.ErrInvalidDecision
	}

	if !s.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}

	s.Status = next
	s.ReviewedBy = &by
	s.ReviewedAt = &at
	s.RejectionReason = nil
	if next == StatusRejected {
		s.RejectionReason = &reason
	}
	return nil
}

// Resubmit resets a document to pending with a new file.
func (s *Submission) Resubmit(filePath string, role domain.Role, at time.Time) {
	s.FilePath = filePath
	s.Role = role
	s.Status = StatusPending
	s.RejectionReason = nil
	s.ReviewedBy = nil
	s.ReviewedAt = nil
	s.SubmittedAt = at
}

func (s *Submission) Snapshot() map[string]any {
	return map[string]any{
		"document_type": string(s.DocumentType),
		"status":        string(s.Status),
	}
}

// Aggregate derives a user's profile verification from all of their
// documents: verified only when at least one exists and every one is approved.
func Aggregate(docs []*Submission) (bool, domain.VerificationStatus) {
	if len(docs) == 0 {
		return false, domain.VerificationPending
	}
	for _, d := range docs {
		if d.Status != StatusApproved {
			return false, domain.VerificationPending
		}
	}
	return true, domain.VerificationVerified
}
