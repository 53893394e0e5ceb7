package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/document"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const documentColumns = `id, user_id, role, document_type, file_path, status,
	rejection_reason, reviewed_by, reviewed_at, submitted_at`

type DocumentRepository struct {
	db database.Querier
}

func NewDocumentRepository(db database.Querier) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Upsert(ctx context.Context, s *document.Submission) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO document_submissions (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, document_type) DO UPDATE SET
			role = EXCLUDED.role,
			file_path = EXCLUDED.file_path,
			status = EXCLUDED.status,
			rejection_reason = EXCLUDED.rejection_reason,
			reviewed_by = EXCLUDED.reviewed_by,
			reviewed_at = EXCLUDED.reviewed_at,
			submitted_at = EXCLUDED.submitted_at`,
		s.ID, s.UserID, string(s.Role), string(s.DocumentType), s.FilePath, string(s.Status),
		s.RejectionReason, s.ReviewedBy, s.ReviewedAt, s.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Submission, error) {
	return r.one(ctx, `SELECT `+documentColumns+` FROM document_submissions WHERE id = $1`, id)
}

func (r *DocumentRepository) GetByUserAndType(ctx context.Context, userID uuid.UUID, t document.Type) (*document.Submission, error) {
	return r.one(ctx,
		`SELECT `+documentColumns+` FROM document_submissions WHERE user_id = $1 AND document_type = $2`,
		userID, string(t),
	)
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*document.Submission, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+` FROM document_submissions WHERE user_id = $1 ORDER BY submitted_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[document.Submission])
}

func (r *DocumentRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*document.Submission, error) {
	s, err := r.one(ctx,
		`SELECT `+documentColumns+` FROM document_submissions WHERE user_id = $1 ORDER BY submitted_at DESC LIMIT 1`,
		userID,
	)
	if errors.Is(err, document.ErrDocumentNotFound) {
		return nil, nil
	}
	return s, err
}

func (r *DocumentRepository) UpdateReview(ctx context.Context, s *document.Submission) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE document_submissions
		SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1`,
		s.ID, string(s.Status), s.RejectionReason, s.ReviewedBy, s.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("updating document review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) one(ctx context.Context, sql string, args ...any) (*document.Submission, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	s, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[document.Submission])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, document.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return s, nil
}
