package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/sportregistration"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SportRegistrationRepository struct {
	db database.Querier
}

func NewSportRegistrationRepository(db database.Querier) *SportRegistrationRepository {
	return &SportRegistrationRepository{db: db}
}

func (r *SportRegistrationRepository) Create(ctx context.Context, reg *sportregistration.Registration) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sport_registrations (id, athlete_id, coach_id, sport, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		reg.ID, reg.AthleteID, reg.CoachID, reg.Sport, string(reg.Status), reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sport registration: %w", err)
	}
	return nil
}

func (r *SportRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*sportregistration.Registration, error) {
	var reg sportregistration.Registration
	err := r.db.QueryRow(ctx, `
		SELECT id, athlete_id, coach_id, sport, status, decision_reason, decided_at, created_at
		FROM sport_registrations WHERE id = $1`, id,
	).Scan(&reg.ID, &reg.AthleteID, &reg.CoachID, &reg.Sport, &reg.Status, &reg.DecisionReason, &reg.DecidedAt, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sportregistration.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying sport registration: %w", err)
	}
	return &reg, nil
}

func (r *SportRegistrationRepository) UpdateStatus(ctx context.Context, reg *sportregistration.Registration) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sport_registrations SET status = $2, decision_reason = $3, decided_at = $4 WHERE id = $1`,
		reg.ID, string(reg.Status), reg.DecisionReason, reg.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("updating sport registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sportregistration.ErrRegistrationNotFound
	}
	return nil
}

func (r *SportRegistrationRepository) HasActive(ctx context.Context, athleteID uuid.UUID, sport string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sport_registrations
			WHERE athlete_id = $1 AND lower(sport) = lower($2) AND status IN ('pending', 'approved')
		)`, athleteID, sport,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking active registrations: %w", err)
	}
	return exists, nil
}
