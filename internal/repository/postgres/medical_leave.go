package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/medicalleave"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const medicalLeaveColumns = `id, athlete_id, coach_id, specialist_id, start_date, end_date,
	reason, document_path, status, created_at, updated_at`

type MedicalLeaveRepository struct {
	db database.Querier
}

func NewMedicalLeaveRepository(db database.Querier) *MedicalLeaveRepository {
	return &MedicalLeaveRepository{db: db}
}

func (r *MedicalLeaveRepository) Create(ctx context.Context, req *medicalleave.Request) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO medical_leave_requests (`+medicalLeaveColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.AthleteID, req.CoachID, req.SpecialistID, req.StartDate, req.EndDate,
		req.Reason, req.DocumentPath, string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting medical leave request: %w", err)
	}
	return nil
}

func (r *MedicalLeaveRepository) GetByID(ctx context.Context, id uuid.UUID) (*medicalleave.Request, error) {
	rows, err := r.db.Query(ctx, `SELECT `+medicalLeaveColumns+` FROM medical_leave_requests WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying medical leave request: %w", err)
	}
	req, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[medicalleave.Request])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, medicalleave.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning medical leave request: %w", err)
	}
	return req, nil
}

func (r *MedicalLeaveRepository) UpdateStatus(ctx context.Context, req *medicalleave.Request) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE medical_leave_requests SET status = $2, specialist_id = $3, updated_at = $4 WHERE id = $1`,
		req.ID, string(req.Status), req.SpecialistID, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating medical leave status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return medicalleave.ErrRequestNotFound
	}
	return nil
}

func (r *MedicalLeaveRepository) InsertSpecialistReview(ctx context.Context, rv *medicalleave.SpecialistReview) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO medical_leave_specialist_reviews (id, request_id, specialist_id, recommendation, notes, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.RequestID, rv.SpecialistID, string(rv.Recommendation), rv.Notes, rv.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting specialist review: %w", err)
	}
	return nil
}

func (r *MedicalLeaveRepository) InsertCoachDecision(ctx context.Context, d *medicalleave.CoachDecision) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO medical_leave_coach_decisions (id, request_id, coach_id, decision, notes, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.RequestID, d.CoachID, string(d.Decision), d.Notes, d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting coach decision: %w", err)
	}
	return nil
}
