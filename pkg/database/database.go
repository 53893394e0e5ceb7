package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Querier is the parameterized-query surface shared by the pool, a checked
// out connection and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a connection checked out of a Pool. Release must be called exactly
// once.
type Conn interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Release()
}

type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

type pgxPool struct {
	pool *pgxpool.Pool
}

// NewPool adapts a pgxpool.Pool to the Pool contract used by the executor.
func NewPool(p *pgxpool.Pool) Pool {
	return pgxPool{pool: p}
}

func (p pgxPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

func Migrate(ctx context.Context, db Querier, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt.query); err != nil {
			return fmt.Errorf("applying %s: %w", stmt.name, err)
		}
	}

	for _, idx := range indexes {
		if _, err := db.Exec(ctx, idx.query); err != nil {
			// Index creation is an optimisation; a failure should not stop boot.
			log.Warn("creating index failed", zap.String("index", idx.name), zap.Error(err))
		}
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

type statement struct {
	name  string
	query string
}

var schema = []statement{
	{
		name: "users",
		query: `CREATE TABLE IF NOT EXISTS users (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			email varchar(255) NOT NULL UNIQUE,
			first_name varchar(100) NOT NULL DEFAULT '',
			last_name varchar(100) NOT NULL DEFAULT '',
			phone varchar(50),
			date_of_birth date,
			sport varchar(100),
			club varchar(150),
			bio text,
			address text,
			specialization varchar(150),
			role varchar(30) NOT NULL,
			registration_verified boolean NOT NULL DEFAULT false,
			registration_rejected boolean NOT NULL DEFAULT false,
			rejection_reason text,
			registration_decided_by uuid,
			registration_decided_at timestamptz,
			profile_verified boolean NOT NULL DEFAULT false,
			verification_status varchar(30) NOT NULL DEFAULT 'pending_verification'
		)`,
	},
	{
		name: "document_submissions",
		query: `CREATE TABLE IF NOT EXISTS document_submissions (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id uuid NOT NULL REFERENCES users(id),
			role varchar(30) NOT NULL,
			document_type varchar(50) NOT NULL,
			file_path text NOT NULL,
			status varchar(20) NOT NULL DEFAULT 'pending',
			rejection_reason text,
			reviewed_by uuid,
			reviewed_at timestamptz,
			submitted_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (user_id, document_type)
		)`,
	},
	{
		name: "medical_leave_requests",
		query: `CREATE TABLE IF NOT EXISTS medical_leave_requests (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			athlete_id uuid NOT NULL REFERENCES users(id),
			coach_id uuid NOT NULL REFERENCES users(id),
			specialist_id uuid REFERENCES users(id),
			start_date date NOT NULL,
			end_date date NOT NULL,
			reason text NOT NULL,
			document_path text,
			status varchar(40) NOT NULL DEFAULT 'pending_specialist_review',
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "medical_leave_specialist_reviews",
		query: `CREATE TABLE IF NOT EXISTS medical_leave_specialist_reviews (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			request_id uuid NOT NULL UNIQUE REFERENCES medical_leave_requests(id),
			specialist_id uuid NOT NULL REFERENCES users(id),
			recommendation varchar(10) NOT NULL,
			notes text,
			reviewed_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "medical_leave_coach_decisions",
		query: `CREATE TABLE IF NOT EXISTS medical_leave_coach_decisions (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			request_id uuid NOT NULL UNIQUE REFERENCES medical_leave_requests(id),
			coach_id uuid NOT NULL REFERENCES users(id),
			decision varchar(10) NOT NULL,
			notes text,
			decided_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "profile_change_requests",
		query: `CREATE TABLE IF NOT EXISTS profile_change_requests (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id uuid NOT NULL REFERENCES users(id),
			changes jsonb NOT NULL,
			status varchar(20) NOT NULL DEFAULT 'pending',
			rejection_reason text,
			reviewed_by uuid,
			reviewed_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "sport_registrations",
		query: `CREATE TABLE IF NOT EXISTS sport_registrations (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			athlete_id uuid NOT NULL REFERENCES users(id),
			coach_id uuid NOT NULL REFERENCES users(id),
			sport varchar(100) NOT NULL,
			status varchar(20) NOT NULL DEFAULT 'pending',
			decision_reason text,
			decided_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "training_plans",
		query: `CREATE TABLE IF NOT EXISTS training_plans (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			coach_id uuid NOT NULL REFERENCES users(id),
			title varchar(200) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "training_plan_athletes",
		query: `CREATE TABLE IF NOT EXISTS training_plan_athletes (
			plan_id uuid NOT NULL REFERENCES training_plans(id),
			athlete_id uuid NOT NULL REFERENCES users(id),
			PRIMARY KEY (plan_id, athlete_id)
		)`,
	},
	{
		name: "consultations",
		query: `CREATE TABLE IF NOT EXISTS consultations (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			specialist_id uuid NOT NULL REFERENCES users(id),
			client_id uuid NOT NULL REFERENCES users(id),
			scheduled_at timestamptz NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "notifications",
		query: `CREATE TABLE IF NOT EXISTS notifications (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id uuid NOT NULL REFERENCES users(id),
			type varchar(50) NOT NULL,
			title varchar(200) NOT NULL,
			message text NOT NULL,
			action_url text,
			is_read boolean NOT NULL DEFAULT false,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "audit_logs",
		query: `CREATE TABLE IF NOT EXISTS audit_logs (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			occurred_at timestamptz NOT NULL DEFAULT now(),
			actor_id varchar(64) NOT NULL,
			actor_role varchar(30) NOT NULL,
			ip_address varchar(45) NOT NULL DEFAULT '',
			request_id varchar(64) NOT NULL DEFAULT '',
			action varchar(64) NOT NULL,
			resource_type varchar(50) NOT NULL,
			resource_id varchar(64),
			result varchar(10) NOT NULL,
			denial_reason text,
			status_before jsonb,
			status_after jsonb,
			error_message text
		)`,
	},
	{
		name: "audit_logs_append_only",
		query: `CREATE OR REPLACE FUNCTION audit_logs_immutable() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'audit_logs is append-only';
		END;
		$$ LANGUAGE plpgsql`,
	},
	{
		name: "audit_logs_append_only_trigger",
		query: `DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'audit_logs_no_mutation') THEN
				CREATE TRIGGER audit_logs_no_mutation BEFORE UPDATE OR DELETE ON audit_logs
				FOR EACH ROW EXECUTE FUNCTION audit_logs_immutable();
			END IF;
		END $$`,
	},
}

var indexes = []statement{
	{
		name:  "idx_audit_logs_actor_time",
		query: `CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_time ON audit_logs (actor_id, occurred_at DESC)`,
	},
	{
		name:  "idx_audit_logs_denials",
		query: `CREATE INDEX IF NOT EXISTS idx_audit_logs_denials ON audit_logs (occurred_at DESC) WHERE result = 'denied'`,
	},
	{
		name:  "idx_documents_user",
		query: `CREATE INDEX IF NOT EXISTS idx_documents_user ON document_submissions (user_id, submitted_at DESC)`,
	},
	{
		name:  "idx_medical_leave_status",
		query: `CREATE INDEX IF NOT EXISTS idx_medical_leave_status ON medical_leave_requests (status, created_at)`,
	},
	{
		name:  "idx_sport_registrations_coach",
		query: `CREATE INDEX IF NOT EXISTS idx_sport_registrations_coach ON sport_registrations (coach_id, status)`,
	},
	{
		name:  "idx_notifications_user_unread",
		query: `CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id, created_at DESC) WHERE NOT is_read`,
	},
}
