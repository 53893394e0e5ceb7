package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	Query(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AuditLogger is what workflows and the guard write through. Calls never
// block on the store and never return an error.
type AuditLogger interface {
	LogAsync(ctx context.Context, entry AuditEntry)
}

// AuditEntry is the caller-facing shape of an audit row. Request metadata is
// taken from the context passed to LogAsync.
type AuditEntry struct {
	ActorID      string
	ActorRole    string
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	Result       domain.AuditResult
	DenialReason string
	StatusBefore any
	StatusAfter  any
	ErrorMessage string
}

func actorEntry(actor *domain.Actor, action domain.AuditAction, resourceType, resourceID string) AuditEntry {
	e := AuditEntry{
		ActorID:      domain.AnonymousActorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Result:       domain.AuditSuccess,
	}
	if actor != nil {
		e.ActorID = actor.ID.String()
		e.ActorRole = string(actor.Role)
	}
	return e
}

type auditJob struct {
	entry *domain.AuditLog
	// barrier is closed by the worker once every job queued ahead of it has
	// been handled.
	barrier chan struct{}
}

type AuditService struct {
	repo    AuditRepository
	log     *zap.Logger
	metrics *metrics.Collector
	breaker *gobreaker.CircuitBreaker[struct{}]
	cfg     config.AuditConfig
	now     func() time.Time

	jobs chan auditJob
	done chan struct{}

	// mu guards closing jobs against concurrent sends. stopping is closed
	// before Shutdown takes the write lock so a blocked Flush lets go of it.
	mu       sync.RWMutex
	closed   bool
	stopping chan struct{}
	stopOnce sync.Once
	dropped atomic.Uint64
}

func NewAuditService(repo AuditRepository, log *zap.Logger, m *metrics.Collector, cfg config.AuditConfig) *AuditService {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10_000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DefaultQueryLimit <= 0 {
		cfg.DefaultQueryLimit = 10_000
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	svc := &AuditService{
		repo:    repo,
		log:     log,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
		jobs:    make(chan auditJob, cfg.BufferSize),
		done:    make(chan struct{}),

		stopping: make(chan struct{}),
	}
	svc.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "audit-store",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("audit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	go svc.worker()
	return svc
}

// LogAsync enqueues an audit entry for async persistence.
// If the buffer is full, or the service is shut down, the entry is dropped
// and a warning is emitted.
func (s *AuditService) LogAsync(ctx context.Context, entry AuditEntry) {
	al := s.toLog(ctx, entry)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(al, "audit service stopped, dropping entry")
		return
	}

	select {
	case s.jobs <- auditJob{entry: al}:
		if s.metrics != nil {
			s.metrics.AuditEnqueuedTotal.Inc()
		}
	default:
		s.drop(al, "audit log buffer full, dropping entry")
	}
}

// Flush blocks until every entry enqueued before the call has been written
// or given up on.
func (s *AuditService) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return errors.New("audit service is shut down")
	}
	select {
	case s.jobs <- auditJob{barrier: barrier}:
	case <-s.stopping:
		s.mu.RUnlock()
		return errors.New("audit service is shut down")
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting entries and waits up to the configured timeout for
// the queue to drain. It is safe to call more than once.
func (s *AuditService) Shutdown() {
	s.stopOnce.Do(func() { close(s.stopping) })

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-time.After(s.cfg.ShutdownTimeout):
		s.log.Warn("audit service shutdown timed out; some entries may be lost")
	}
}

// Dropped is the number of entries discarded because the buffer was full or
// the service had stopped.
func (s *AuditService) Dropped() uint64 {
	return s.dropped.Load()
}

// QueryAuditLogs returns matching entries newest first. Without an explicit
// limit at most DefaultQueryLimit rows come back.
func (s *AuditService) QueryAuditLogs(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, validationErr("to: must not be before from")
	}
	if f.Limit <= 0 {
		f.Limit = s.cfg.DefaultQueryLimit
	}

	logs, err := s.repo.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}

	slices.SortStableFunc(logs, func(a, b *domain.AuditLog) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	if len(logs) > f.Limit {
		logs = logs[:f.Limit]
	}
	return logs, nil
}

// DenialsInRange lists every denied decision between from and to.
func (s *AuditService) DenialsInRange(ctx context.Context, from, to time.Time) ([]*domain.AuditLog, error) {
	denied := domain.AuditDenied
	return s.QueryAuditLogs(ctx, domain.AuditFilter{Result: &denied, From: &from, To: &to})
}

// ActionsByActor lists everything one actor did between from and to.
func (s *AuditService) ActionsByActor(ctx context.Context, actorID string, from, to time.Time) ([]*domain.AuditLog, error) {
	return s.QueryAuditLogs(ctx, domain.AuditFilter{ActorID: &actorID, From: &from, To: &to})
}

func (s *AuditService) worker() {
	defer close(s.done)
	for job := range s.jobs {
		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		s.persist(job.entry)
	}
}

func (s *AuditService) persist(entry *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("audit write panicked", zap.Any("panic", r), zap.String("action", string(entry.Action)))
			s.observeFailure()
		}
	}()

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.repo.Create(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.log.Warn("audit store unavailable, entry not written",
				zap.String("action", string(entry.Action)),
				zap.String("actor_id", entry.ActorID),
			)
		} else {
			s.log.Error("failed to persist audit log",
				zap.String("action", string(entry.Action)),
				zap.String("actor_id", entry.ActorID),
				zap.Error(err),
			)
		}
		s.observeFailure()
		return
	}

	if s.metrics != nil {
		s.metrics.AuditEntriesTotal.WithLabelValues(string(entry.Action), string(entry.Result)).Inc()
	}
}

func (s *AuditService) drop(al *domain.AuditLog, msg string) {
	s.dropped.Add(1)
	if s.metrics != nil {
		s.metrics.AuditBufferDropped.Inc()
	}
	s.log.Warn(msg,
		zap.String("action", string(al.Action)),
		zap.String("resource", al.ResourceType),
	)
}

func (s *AuditService) observeFailure() {
	if s.metrics != nil {
		s.metrics.AuditWriteFailures.Inc()
	}
}

func (s *AuditService) toLog(ctx context.Context, e AuditEntry) *domain.AuditLog {
	al := &domain.AuditLog{
		ID:           uuid.New(),
		OccurredAt:   s.now().UTC(),
		ActorID:      e.ActorID,
		ActorRole:    e.ActorRole,
		IPAddress:    domain.ClientIPFromContext(ctx),
		RequestID:    domain.RequestIDFromContext(ctx),
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   optional(e.ResourceID),
		Result:       e.Result,
		DenialReason: optional(e.DenialReason),
		ErrorMessage: optional(e.ErrorMessage),
		StatusBefore: s.snapshot(e.StatusBefore),
		StatusAfter:  s.snapshot(e.StatusAfter),
	}
	if al.ActorID == "" {
		al.ActorID = domain.AnonymousActorID
	}
	if al.Result == "" {
		al.Result = domain.AuditSuccess
	}
	return al
}

func (s *AuditService) snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("audit snapshot not serialisable", zap.Error(err))
		return nil
	}
	return b
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
