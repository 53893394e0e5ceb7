package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileChangeRepository struct {
	db database.Querier
}

func NewProfileChangeRepository(db database.Querier) *ProfileChangeRepository {
	return &ProfileChangeRepository{db: db}
}

func (r *ProfileChangeRepository) Create(ctx context.Context, req *profilechange.Request) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profile_change_requests (id, user_id, changes, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.UserID, req.Changes, string(req.Status), req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting profile change request: %w", err)
	}
	return nil
}

func (r *ProfileChangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*profilechange.Request, error) {
	var req profilechange.Request
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, changes, status, rejection_reason, reviewed_by, reviewed_at, created_at
		FROM profile_change_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.UserID, &req.Changes, &req.Status, &req.RejectionReason, &req.ReviewedBy, &req.ReviewedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, profilechange.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile change request: %w", err)
	}
	return &req, nil
}

func (r *ProfileChangeRepository) UpdateReview(ctx context.Context, req *profilechange.Request) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profile_change_requests
		SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1`,
		req.ID, string(req.Status), req.RejectionReason, req.ReviewedBy, req.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("updating profile change review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return profilechange.ErrRequestNotFound
	}
	return nil
}
