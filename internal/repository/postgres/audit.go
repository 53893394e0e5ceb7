package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/jackc/pgx/v5"
)

const auditColumns = `id, occurred_at, actor_id, actor_role, ip_address, request_id,
	action, resource_type, resource_id, result, denial_reason,
	status_before, status_after, error_message`

// AuditRepository appends to and reads from audit_logs. The table rejects
// UPDATE and DELETE, so there is no mutation path here.
type AuditRepository struct {
	db database.Querier
}

func NewAuditRepository(db database.Querier) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.OccurredAt, e.ActorID, e.ActorRole, e.IPAddress, e.RequestID,
		string(e.Action), e.ResourceType, e.ResourceID, string(e.Result), e.DenialReason,
		jsonb(e.StatusBefore), jsonb(e.StatusAfter), e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	sql, args := buildAuditQuery(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.AuditLog])
	if err != nil {
		return nil, fmt.Errorf("scanning audit logs: %w", err)
	}
	return logs, nil
}

func buildAuditQuery(f domain.AuditFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	where := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ActorID != nil {
		where("actor_id = $%d", *f.ActorID)
	}
	if f.Action != nil {
		where("action = $%d", string(*f.Action))
	}
	if f.ResourceType != nil {
		where("resource_type = $%d", *f.ResourceType)
	}
	if f.Result != nil {
		where("result = $%d", string(*f.Result))
	}
	if f.From != nil {
		where("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		where("occurred_at <= $%d", *f.To)
	}

	var b strings.Builder
	b.WriteString("SELECT " + auditColumns + " FROM audit_logs")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

// jsonb maps an empty snapshot to SQL NULL.
func jsonb(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
