package document

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts a submission or replaces the one already held for the
	// same (user, document type) pair.
	Upsert(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	GetByUserAndType(ctx context.Context, userID uuid.UUID, t Type) (*Submission, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Submission, error)

	// LatestByUser returns the most recently submitted document, or nil when
	// the user has none.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*Submission, error)
	UpdateReview(ctx context.Context, s *Submission) error
}
