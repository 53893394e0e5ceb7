package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestAudit(t *testing.T, repo AuditRepository, cfg config.AuditConfig) (*AuditService, *metrics.Collector, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewAuditService(repo, zap.New(core), m, cfg)
	t.Cleanup(svc.Shutdown)
	return svc, m, logs
}

func flush(t *testing.T, svc *AuditService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestAuditLogAsyncPersistsEntry(t *testing.T) {
	repo := &memAuditRepo{}
	svc, m, _ := newTestAudit(t, repo, testAuditConfig())

	actor := &domain.Actor{ID: uuid.New(), Role: domain.RoleOfficial}
	e := actorEntry(actor, domain.ActionApprovalGranted, "registration", "u-1")
	e.StatusBefore = map[string]any{"registration_verified": false}
	e.StatusAfter = map[string]any{"registration_verified": true}

	ctx := domain.WithClientIP(domain.WithRequestID(context.Background(), "req-42"), "192.0.2.1")
	svc.LogAsync(ctx, e)
	flush(t, svc)

	rows := repo.all()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.ActorID != actor.ID.String() || row.ActorRole != "official" || row.Result != domain.AuditSuccess {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.RequestID != "req-42" || row.IPAddress != "192.0.2.1" {
		t.Fatalf("request metadata = %q/%q", row.RequestID, row.IPAddress)
	}
	if string(row.StatusAfter) != `{"registration_verified":true}` {
		t.Fatalf("status_after = %s", row.StatusAfter)
	}
	if row.DenialReason != nil || row.ErrorMessage != nil {
		t.Fatal("empty optional fields should be stored as NULL")
	}
	if got := testutil.ToFloat64(m.AuditEntriesTotal.WithLabelValues("APPROVAL_GRANTED", "success")); got != 1 {
		t.Fatalf("entries counter = %v", got)
	}
}

func TestAuditDropsWhenBufferFull(t *testing.T) {
	repo := &memAuditRepo{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	cfg := testAuditConfig()
	cfg.BufferSize = 1
	cfg.WriteTimeout = 5 * time.Second
	cfg.ShutdownTimeout = 5 * time.Second
	svc, m, logs := newTestAudit(t, repo, cfg)

	entry := AuditEntry{ActorID: "a", Action: domain.ActionDocumentSubmitted, ResourceType: "document"}

	svc.LogAsync(context.Background(), entry)
	<-repo.entered // worker is now blocked inside the store

	start := time.Now()
	svc.LogAsync(context.Background(), entry) // fills the buffer
	svc.LogAsync(context.Background(), entry) // dropped
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("LogAsync blocked on a full buffer")
	}

	if svc.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", svc.Dropped())
	}
	if got := testutil.ToFloat64(m.AuditBufferDropped); got != 1 {
		t.Fatalf("dropped counter = %v", got)
	}
	if logs.FilterMessage("audit log buffer full, dropping entry").Len() != 1 {
		t.Fatal("expected a warning for the dropped entry")
	}

	close(repo.gate)
	flush(t, svc)
	if n := len(repo.all()); n != 2 {
		t.Fatalf("persisted %d rows, want 2", n)
	}
}

func TestAuditStoreFailuresAreSwallowed(t *testing.T) {
	repo := &memAuditRepo{fail: errors.New("connection reset")}
	cfg := testAuditConfig()
	cfg.BreakerFailures = 2
	svc, m, logs := newTestAudit(t, repo, cfg)

	for i := 0; i < 5; i++ {
		svc.LogAsync(context.Background(), AuditEntry{ActorID: "a", Action: domain.ActionPermissionDenied, Result: domain.AuditDenied})
	}
	flush(t, svc)

	if got := testutil.ToFloat64(m.AuditWriteFailures); got != 5 {
		t.Fatalf("write failures = %v, want 5", got)
	}

	repo.mu.Lock()
	calls := repo.calls
	repo.mu.Unlock()
	if calls != 2 {
		t.Fatalf("store called %d times, want 2 before the breaker opened", calls)
	}
	if logs.FilterMessage("audit store unavailable, entry not written").Len() != 3 {
		t.Fatal("expected short-circuited writes to be logged")
	}
}

func TestAuditShutdownDrainsAndRejects(t *testing.T) {
	repo := &memAuditRepo{}
	svc, _, _ := newTestAudit(t, repo, testAuditConfig())

	for i := 0; i < 10; i++ {
		svc.LogAsync(context.Background(), AuditEntry{ActorID: "a", Action: domain.ActionDocumentReviewed})
	}
	svc.Shutdown()

	if n := len(repo.all()); n != 10 {
		t.Fatalf("persisted %d rows after shutdown, want 10", n)
	}

	svc.LogAsync(context.Background(), AuditEntry{ActorID: "a", Action: domain.ActionDocumentReviewed})
	if svc.Dropped() != 1 {
		t.Fatalf("Dropped() = %d after shutdown, want 1", svc.Dropped())
	}
	if err := svc.Flush(context.Background()); err == nil {
		t.Fatal("Flush() after shutdown should fail")
	}
	svc.Shutdown()
}

func TestQueryAuditLogs(t *testing.T) {
	repo := &memAuditRepo{}
	svc, _, _ := newTestAudit(t, repo, testAuditConfig())

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 5; i++ {
		e := AuditEntry{ActorID: "official-1", Action: domain.ActionApprovalGranted, Result: domain.AuditSuccess}
		if i%2 == 0 {
			e.ActorID = "coach-7"
			e.Action = domain.ActionPermissionDenied
			e.Result = domain.AuditDenied
		}
		svc.LogAsync(context.Background(), e)
	}
	flush(t, svc)

	all, err := svc.QueryAuditLogs(context.Background(), domain.AuditFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastLimit != 10_000 {
		t.Fatalf("default limit = %d, want 10000", repo.lastLimit)
	}
	if len(all) != 5 {
		t.Fatalf("got %d rows", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].OccurredAt.After(all[i-1].OccurredAt) {
			t.Fatal("rows are not newest first")
		}
	}

	top, err := svc.QueryAuditLogs(context.Background(), domain.AuditFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || !top[0].OccurredAt.Equal(base.Add(5*time.Minute)) {
		t.Fatalf("explicit limit returned %d rows starting at %v", len(top), top[0].OccurredAt)
	}

	denials, err := svc.DenialsInRange(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(denials) != 3 {
		t.Fatalf("denials = %d, want 3", len(denials))
	}

	byActor, err := svc.ActionsByActor(context.Background(), "official-1", base, base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(byActor) != 2 {
		t.Fatalf("actions by actor = %d, want 2", len(byActor))
	}

	_, err = svc.DenialsInRange(context.Background(), base, base.Add(-time.Hour))
	assertKind(t, err, KindValidation)
}

func TestAuditShutdownReleasesBlockedFlush(t *testing.T) {
	repo := &memAuditRepo{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	cfg := testAuditConfig()
	cfg.BufferSize = 1
	cfg.WriteTimeout = 5 * time.Second
	cfg.ShutdownTimeout = 5 * time.Second
	svc, _, _ := newTestAudit(t, repo, cfg)

	entry := AuditEntry{ActorID: "a", Action: domain.ActionDocumentSubmitted, ResourceType: "document"}
	svc.LogAsync(context.Background(), entry)
	<-repo.entered
	svc.LogAsync(context.Background(), entry) // buffer is now full

	flushErr := make(chan error, 1)
	go func() { flushErr <- svc.Flush(context.Background()) }()

	shutdownDone := make(chan struct{})
	go func() {
		svc.Shutdown()
		close(shutdownDone)
	}()

	select {
	case err := <-flushErr:
		if err == nil {
			t.Fatal("Flush() should fail once shutdown has begun")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Flush() kept blocking after Shutdown started")
	}

	start := time.Now()
	svc.LogAsync(context.Background(), entry)
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("LogAsync blocked while shutdown was pending")
	}

	close(repo.gate)
	select {
	case <-shutdownDone:
	case <-time.After(3 * time.Second):
		t.Fatal("Shutdown() did not finish")
	}
	if n := len(repo.all()); n != 2 {
		t.Fatalf("persisted %d rows, want 2", n)
	}
}
