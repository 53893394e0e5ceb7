package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ActorResolver returns the caller's current identity. A nil actor with a nil
// error means the request is unauthenticated.
type ActorResolver interface {
	CurrentActor(ctx context.Context) (*domain.Actor, error)
}

// UserLookup is the slice of the user store the resolver needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ClaimsResolver turns verified token claims into an actor, taking the role
// from the stored user so a role change applies without re-issuing tokens.
type ClaimsResolver struct {
	users UserLookup
}

func NewClaimsResolver(users UserLookup) *ClaimsResolver {
	return &ClaimsResolver{users: users}
}

func (r *ClaimsResolver) CurrentActor(ctx context.Context) (*domain.Actor, error) {
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil {
		return nil, nil
	}

	u, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading actor: %w", err)
	}

	return &domain.Actor{ID: u.ID, Role: u.Role, Email: u.Email}, nil
}

// Relationship is a predefined existence check between two parties. The
// query takes partyA as $1 and partyB as $2.
type Relationship struct {
	Name  string
	query string
}

var (
	// CoachOfAthlete holds when the coach trains the athlete through a plan or
	// an approved sport registration.
	CoachOfAthlete = Relationship{
		Name: "coach_of_athlete",
		query: `SELECT EXISTS (
			SELECT 1 FROM training_plans tp
			JOIN training_plan_athletes tpa ON tpa.plan_id = tp.id
			WHERE tp.coach_id = $1 AND tpa.athlete_id = $2
			UNION ALL
			SELECT 1 FROM sport_registrations sr
			WHERE sr.coach_id = $1 AND sr.athlete_id = $2 AND sr.status = 'approved'
		)`,
	}

	// SpecialistOfClient holds when the specialist has a consultation with
	// the client.
	SpecialistOfClient = Relationship{
		Name:  "specialist_of_client",
		query: `SELECT EXISTS (SELECT 1 FROM consultations WHERE specialist_id = $1 AND client_id = $2)`,
	}
)

// Guard is the single place permission, ownership and relationship checks
// are made. Denials are audited here.
type Guard struct {
	registry *permission.Registry
	actors   ActorResolver
	db       database.Querier
	audit    AuditLogger
	metrics  *metrics.Collector
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewGuard(
	registry *permission.Registry,
	actors ActorResolver,
	db database.Querier,
	audit AuditLogger,
	m *metrics.Collector,
	log *zap.Logger,
) *Guard {
	return &Guard{
		registry: registry,
		actors:   actors,
		db:       db,
		audit:    audit,
		metrics:  m,
		log:      log,
		tracer:   otel.Tracer("athletehub/guard"),
	}
}

// RequirePermission resolves the actor and checks their role carries p. An
// unregistered permission is a wiring bug and fails as an internal error.
func (g *Guard) RequirePermission(ctx context.Context, p permission.Permission) (*domain.Actor, error) {
	ctx, span := g.tracer.Start(ctx, "guard.RequirePermission", trace.WithAttributes(
		attribute.String("authz.permission", string(p)),
	))
	defer span.End()

	if !g.registry.Known(p) {
		g.log.Error("permission is not registered; check the permission table", zap.String("permission", string(p)))
		g.observe(p, "unknown")
		return nil, fmt.Errorf("permission %q is not registered", p)
	}

	actor, err := g.actors.CurrentActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving actor: %w", err)
	}

	if actor == nil {
		g.deny(ctx, nil, p, "no authenticated actor")
		return nil, &AuthenticationError{Reason: "no authenticated actor"}
	}

	if !g.registry.HasPermission(actor.Role, p) {
		g.deny(ctx, actor, p, fmt.Sprintf("role %s lacks %s", actor.Role, p))
		return nil, &AuthorizationError{ActorID: actor.ID, Role: actor.Role, Permission: p}
	}

	g.observe(p, "granted")
	return actor, nil
}

// RequireOwnership checks that row resourceID of table has ownerColumn equal
// to userID. Table and column are quoted as identifiers; only the values are
// bound as parameters.
func (g *Guard) RequireOwnership(ctx context.Context, table, resourceID, ownerColumn string, userID uuid.UUID) error {
	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND %s = $2)",
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{ownerColumn}.Sanitize(),
	)

	var owns bool
	if err := g.db.QueryRow(ctx, query, resourceID, userID).Scan(&owns); err != nil {
		return fmt.Errorf("checking ownership of %s: %w", table, err)
	}
	if !owns {
		return &OwnershipError{Resource: table, ResourceID: resourceID, Reason: "caller is not the owner"}
	}
	return nil
}

// RequireRelationship checks rel holds between partyA and partyB.
func (g *Guard) RequireRelationship(ctx context.Context, partyA, partyB uuid.UUID, rel Relationship) error {
	var ok bool
	if err := g.db.QueryRow(ctx, rel.query, partyA, partyB).Scan(&ok); err != nil {
		return fmt.Errorf("checking %s relationship: %w", rel.Name, err)
	}
	if !ok {
		return &OwnershipError{Resource: rel.Name, ResourceID: partyB.String(), Reason: "no such relationship"}
	}
	return nil
}

func (g *Guard) deny(ctx context.Context, actor *domain.Actor, p permission.Permission, reason string) {
	g.observe(p, "denied")

	e := actorEntry(actor, domain.ActionPermissionDenied, "permission", string(p))
	e.Result = domain.AuditDenied
	e.DenialReason = reason
	g.audit.LogAsync(ctx, e)

	fields := []zap.Field{
		zap.String("permission", string(p)),
		zap.String("reason", reason),
	}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID.String()), zap.String("role", string(actor.Role)))
	}
	logger.FromContext(ctx, g.log).Info("permission denied", fields...)
}

func (g *Guard) observe(p permission.Permission, outcome string) {
	if g.metrics != nil {
		g.metrics.AuthzDecisions.WithLabelValues(string(p), outcome).Inc()
	}
}
