package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
)

// AuditQueryService exposes the audit trail to officials. Every read is
// itself audited.
type AuditQueryService struct {
	guard *Guard
	audit *AuditService
}

func NewAuditQueryService(guard *Guard, audit *AuditService) *AuditQueryService {
	return &AuditQueryService{guard: guard, audit: audit}
}

func (s *AuditQueryService) Query(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	actor, err := s.guard.RequirePermission(ctx, permission.ViewAuditLogs)
	if err != nil {
		return nil, err
	}

	logs, err := s.audit.QueryAuditLogs(ctx, f)
	if err != nil {
		return nil, err
	}

	e := actorEntry(actor, domain.ActionAuditLogsQueried, "audit_log", "")
	e.StatusAfter = map[string]any{"rows": len(logs)}
	s.audit.LogAsync(ctx, e)
	return logs, nil
}

func (s *AuditQueryService) Denials(ctx context.Context, from, to time.Time) ([]*domain.AuditLog, error) {
	denied := domain.AuditDenied
	return s.Query(ctx, domain.AuditFilter{Result: &denied, From: &from, To: &to})
}

func (s *AuditQueryService) ActorActivity(ctx context.Context, actorID string, from, to time.Time) ([]*domain.AuditLog, error) {
	return s.Query(ctx, domain.AuditFilter{ActorID: &actorID, From: &from, To: &to})
}
