package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/document"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/medicalleave"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/profilechange"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/sportregistration"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ── transaction fakes ───────────────────────────────────────────────────────

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeConn struct{}

func (fakeConn) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeConn) Release()                                                {}

type fakePool struct{}

func (fakePool) Acquire(context.Context) (database.Conn, error) { return fakeConn{}, nil }

// ── relationship / ownership querier ────────────────────────────────────────

type boolRow struct {
	val bool
	err error
}

func (r boolRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.val
	return nil
}

type existsQuerier struct {
	mu     sync.Mutex
	exists bool
	err    error
	sql    []string
	args   [][]any
}

func (q *existsQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported")
}

func (q *existsQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q *existsQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return boolRow{val: q.exists, err: q.err}
}

// ── actors ──────────────────────────────────────────────────────────────────

type actorKey struct{}

type ctxActors struct{}

func (ctxActors) CurrentActor(ctx context.Context) (*domain.Actor, error) {
	a, _ := ctx.Value(actorKey{}).(*domain.Actor)
	return a, nil
}

func as(a *domain.Actor) context.Context {
	ctx := domain.WithRequestID(context.Background(), "req-"+uuid.NewString()[:8])
	return context.WithValue(domain.WithClientIP(ctx, "10.0.0.7"), actorKey{}, a)
}

// ── in-memory stores ────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]domain.User
	profiles  map[uuid.UUID]map[string]*string
	docs      map[uuid.UUID]document.Submission
	leaves    map[uuid.UUID]medicalleave.Request
	reviews   []medicalleave.SpecialistReview
	decisions []medicalleave.CoachDecision
	changes   map[uuid.UUID]profilechange.Request
	sportRegs map[uuid.UUID]sportregistration.Registration

	// failWrites makes every user update fail.
	failWrites error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]domain.User{},
		profiles:  map[uuid.UUID]map[string]*string{},
		docs:      map[uuid.UUID]document.Submission{},
		leaves:    map[uuid.UUID]medicalleave.Request{},
		changes:   map[uuid.UUID]profilechange.Request{},
		sportRegs: map[uuid.UUID]sportregistration.Registration{},
	}
}

func (s *memStore) repos(database.Querier) Repositories {
	return Repositories{
		Users:              memUsers{s},
		Documents:          memDocs{s},
		MedicalLeaves:      memLeaves{s},
		ProfileChanges:     memChanges{s},
		SportRegistrations: memSportRegs{s},
	}
}

func (s *memStore) user(id uuid.UUID) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) IDsByRole(_ context.Context, role domain.Role) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uuid.UUID
	for id, u := range r.s.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r memUsers) UpdateRegistration(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) UpdateVerification(_ context.Context, id uuid.UUID, verified bool, status domain.VerificationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ProfileVerified = verified
	u.VerificationStatus = status
	r.s.users[id] = u
	return nil
}

func (r memUsers) ApplyProfileChanges(_ context.Context, id uuid.UUID, changes profilechange.Changes) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWrites != nil {
		return r.s.failWrites
	}
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	p := r.s.profiles[id]
	if p == nil {
		p = map[string]*string{}
		r.s.profiles[id] = p
	}
	for k, v := range changes {
		p[k] = v
		switch k {
		case "first_name":
			u.FirstName = deref(v)
		case "last_name":
			u.LastName = deref(v)
		}
	}
	r.s.users[id] = u
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type memDocs struct{ s *memStore }

func (r memDocs) Upsert(_ context.Context, d *document.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.docs[d.ID] = *d
	return nil
}

func (r memDocs) GetByID(_ context.Context, id uuid.UUID) (*document.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.docs[id]
	if !ok {
		return nil, document.ErrDocumentNotFound
	}
	return &d, nil
}

func (r memDocs) GetByUserAndType(_ context.Context, userID uuid.UUID, t document.Type) (*document.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.docs {
		if d.UserID == userID && d.DocumentType == t {
			return &d, nil
		}
	}
	return nil, document.ErrDocumentNotFound
}

func (r memDocs) ListByUser(_ context.Context, userID uuid.UUID) ([]*document.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*document.Submission
	for _, d := range r.s.docs {
		if d.UserID == userID {
			out = append(out, &d)
		}
	}
	return out, nil
}

func (r memDocs) LatestByUser(ctx context.Context, userID uuid.UUID) (*document.Submission, error) {
	docs, _ := r.ListByUser(ctx, userID)
	if len(docs) == 0 {
		return nil, nil
	}
	return slices.MaxFunc(docs, func(a, b *document.Submission) int {
		return a.SubmittedAt.Compare(b.SubmittedAt)
	}), nil
}

func (r memDocs) UpdateReview(ctx context.Context, d *document.Submission) error {
	return r.Upsert(ctx, d)
}

type memLeaves struct{ s *memStore }

func (r memLeaves) Create(_ context.Context, l *medicalleave.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.leaves[l.ID] = *l
	return nil
}

func (r memLeaves) GetByID(_ context.Context, id uuid.UUID) (*medicalleave.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leaves[id]
	if !ok {
		return nil, medicalleave.ErrRequestNotFound
	}
	return &l, nil
}

func (r memLeaves) UpdateStatus(ctx context.Context, l *medicalleave.Request) error {
	return r.Create(ctx, l)
}

func (r memLeaves) InsertSpecialistReview(_ context.Context, rv *medicalleave.SpecialistReview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reviews = append(r.s.reviews, *rv)
	return nil
}

func (r memLeaves) InsertCoachDecision(_ context.Context, d *medicalleave.CoachDecision) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.decisions = append(r.s.decisions, *d)
	return nil
}

type memChanges struct{ s *memStore }

func (r memChanges) Create(_ context.Context, c *profilechange.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.changes[c.ID] = *c
	return nil
}

func (r memChanges) GetByID(_ context.Context, id uuid.UUID) (*profilechange.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.changes[id]
	if !ok {
		return nil, profilechange.ErrRequestNotFound
	}
	return &c, nil
}

func (r memChanges) UpdateReview(ctx context.Context, c *profilechange.Request) error {
	return r.Create(ctx, c)
}

type memSportRegs struct{ s *memStore }

func (r memSportRegs) Create(_ context.Context, reg *sportregistration.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sportRegs[reg.ID] = *reg
	return nil
}

func (r memSportRegs) GetByID(_ context.Context, id uuid.UUID) (*sportregistration.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.sportRegs[id]
	if !ok {
		return nil, sportregistration.ErrRegistrationNotFound
	}
	return &reg, nil
}

func (r memSportRegs) UpdateStatus(ctx context.Context, reg *sportregistration.Registration) error {
	return r.Create(ctx, reg)
}

func (r memSportRegs) HasActive(_ context.Context, athleteID uuid.UUID, sport string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reg := range r.s.sportRegs {
		if reg.AthleteID == athleteID && reg.Sport == sport &&
			(reg.Status == sportregistration.StatusPending || reg.Status == sportregistration.StatusApproved) {
			return true, nil
		}
	}
	return false, nil
}

// ── audit store ─────────────────────────────────────────────────────────────

type memAuditRepo struct {
	mu        sync.Mutex
	rows      []*domain.AuditLog
	fail      error
	calls     int
	lastLimit int
	// gate, when set, blocks Create until closed; entered is signalled first.
	gate    chan struct{}
	entered chan struct{}
}

func (r *memAuditRepo) Create(ctx context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	r.calls++
	gate, entered, fail := r.gate, r.entered, r.fail
	r.mu.Unlock()

	if gate != nil {
		if entered != nil {
			select {
			case entered <- struct{}{}:
			default:
			}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail != nil {
		return fail
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, e)
	return nil
}

// Query returns matches in insertion order and ignores the limit, so callers
// are exercised on ordering and truncation.
func (r *memAuditRepo) Query(_ context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = f.Limit
	var out []*domain.AuditLog
	for _, e := range r.rows {
		switch {
		case f.ActorID != nil && e.ActorID != *f.ActorID,
			f.Action != nil && e.Action != *f.Action,
			f.ResourceType != nil && e.ResourceType != *f.ResourceType,
			f.Result != nil && e.Result != *f.Result,
			f.From != nil && e.OccurredAt.Before(*f.From),
			f.To != nil && e.OccurredAt.After(*f.To):
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memAuditRepo) all() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rows)
}

// ── notifications ───────────────────────────────────────────────────────────

type captureSink struct {
	mu   sync.Mutex
	sent []notification.Notification
	err  error
}

func (c *captureSink) Send(_ context.Context, batch []notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, batch...)
	return nil
}

func (c *captureSink) to(userID uuid.UUID) []notification.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []notification.Notification
	for _, n := range c.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// ── harness ─────────────────────────────────────────────────────────────────

type harness struct {
	store     *memStore
	auditRepo *memAuditRepo
	audit     *AuditService
	sink      *captureSink
	rel       *existsQuerier
	metrics   *metrics.Collector
	deps      WorkflowDeps
}

func testAuditConfig() config.AuditConfig {
	return config.AuditConfig{
		BufferSize:        256,
		WriteTimeout:      time.Second,
		ShutdownTimeout:   2 * time.Second,
		DefaultQueryLimit: 10_000,
		BreakerFailures:   100,
		BreakerCooldown:   time.Minute,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := zap.NewNop()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	store := newMemStore()
	auditRepo := &memAuditRepo{}
	audit := NewAuditService(auditRepo, log, m, testAuditConfig())
	t.Cleanup(audit.Shutdown)

	sink := &captureSink{}
	rel := &existsQuerier{exists: true}
	guard := NewGuard(permission.Default(), ctxActors{}, rel, audit, m, log)

	return &harness{
		store:     store,
		auditRepo: auditRepo,
		audit:     audit,
		sink:      sink,
		rel:       rel,
		metrics:   m,
		deps: WorkflowDeps{
			Guard:    guard,
			Tx:       database.NewTxExecutor(fakePool{}, log, m, time.Second),
			Repos:    store.repos,
			DB:       rel,
			Audit:    audit,
			Notifier: sink,
			Metrics:  m,
			Log:      log,
		},
	}
}

// newUser stores a user with role and returns them as an actor.
func (h *harness) newUser(role domain.Role) *domain.Actor {
	id := uuid.New()
	h.store.mu.Lock()
	h.store.users[id] = domain.User{
		ID:                 id,
		Email:              string(role) + "-" + id.String()[:8] + "@example.com",
		Role:               role,
		VerificationStatus: domain.VerificationPending,
	}
	h.store.mu.Unlock()
	return &domain.Actor{ID: id, Role: role}
}

// auditRows waits for the audit queue to drain and returns what was written.
func (h *harness) auditRows(t *testing.T) []*domain.AuditLog {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.audit.Flush(ctx); err != nil {
		t.Fatalf("flushing audit log: %v", err)
	}
	return h.auditRepo.all()
}

func rowsWith(rows []*domain.AuditLog, action domain.AuditAction) []*domain.AuditLog {
	var out []*domain.AuditLog
	for _, r := range rows {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("KindOf(%v) = %s, want %s", err, got, want)
	}
}
