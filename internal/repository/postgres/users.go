package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, created_at, updated_at, email, first_name, last_name, role,
	registration_verified, registration_rejected, rejection_reason,
	registration_decided_by, registration_decided_at,
	profile_verified, verification_status`

type UserRepository struct {
	db database.Querier
}

func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) IDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE role = $1 ORDER BY id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("listing users by role: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *UserRepository) UpdateRegistration(ctx context.Context, u *domain.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			role = $2,
			registration_verified = $3,
			registration_rejected = $4,
			rejection_reason = $5,
			registration_decided_by = $6,
			registration_decided_at = $7,
			profile_verified = $8,
			verification_status = $9,
			updated_at = now()
		WHERE id = $1`,
		u.ID, string(u.Role), u.RegistrationVerified, u.RegistrationRejected, u.RejectionReason,
		u.RegistrationDecidedBy, u.RegistrationDecidedAt, u.ProfileVerified, string(u.VerificationStatus),
	)
	if err != nil {
		return fmt.Errorf("updating registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateVerification(ctx context.Context, id uuid.UUID, verified bool, status domain.VerificationStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET profile_verified = $2, verification_status = $3, updated_at = now() WHERE id = $1`,
		id, verified, string(status),
	)
	if err != nil {
		return fmt.Errorf("updating verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ApplyProfileChanges writes the whitelisted fields of changes onto the user.
// Column names come from profilechange.Editable, never from the request.
func (r *UserRepository) ApplyProfileChanges(ctx context.Context, id uuid.UUID, changes profilechange.Changes) error {
	if err := changes.Validate(); err != nil {
		return err
	}

	sets := make([]string, 0, len(changes)+1)
	args := []any{id}
	for _, field := range changes.Fields() {
		f := profilechange.Editable[field]
		args = append(args, changes[field])
		cast := "::text"
		if f.Date {
			cast = "::text::date"
		}
		sets = append(sets, fmt.Sprintf("%s = $%d%s", pgx.Identifier{f.Column}.Sanitize(), len(args), cast))
	}
	sets = append(sets, "updated_at = now()")

	tag, err := r.db.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("applying profile changes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
