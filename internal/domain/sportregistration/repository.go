package sportregistration

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	UpdateStatus(ctx context.Context, r *Registration) error

	// HasActive reports whether the athlete already holds a pending or
	// approved registration for the sport.
	HasActive(ctx context.Context, athleteID uuid.UUID, sport string) (bool, error)
}
