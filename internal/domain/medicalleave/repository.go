package medicalleave

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	UpdateStatus(ctx context.Context, r *Request) error

	InsertSpecialistReview(ctx context.Context, rv *SpecialistReview) error
	InsertCoachDecision(ctx context.Context, d *CoachDecision) error
}
