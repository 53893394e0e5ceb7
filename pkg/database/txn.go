package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Result is produced exactly once per WithTransaction call. Either Success is
// true and Data holds the unit of work's value, or Success is false and Err is
// set.
type Result[T any] struct {
	Success       bool
	Data          T
	Err           error
	TransactionID string
}

// TxError wraps every failure captured by the executor. Unwrap exposes the
// original error so callers can still match domain errors raised inside the
// unit of work.
type TxError struct {
	Label         string
	TransactionID string
	Op            string // acquire, begin, unit, commit
	Err           error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s (%s) failed during %s: %v", e.Label, e.TransactionID, e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// SQLSTATE 40001: the store aborted the transaction to preserve serializability.
const serializationFailure = "40001"

// IsSerializationFailure reports whether err is a serializable-isolation
// conflict. Such failures are surfaced to the caller, never retried here.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}

// UnitOfWork runs against the transaction-scoped client. Returning an error
// (or panicking) rolls the whole unit back.
type UnitOfWork[T any] func(ctx context.Context, tx Querier) (T, error)

type TxExecutor struct {
	pool            Pool
	log             *zap.Logger
	metrics         *metrics.Collector
	tracer          trace.Tracer
	rollbackTimeout time.Duration
}

func NewTxExecutor(pool Pool, log *zap.Logger, m *metrics.Collector, rollbackTimeout time.Duration) *TxExecutor {
	if rollbackTimeout <= 0 {
		rollbackTimeout = 5 * time.Second
	}
	return &TxExecutor{
		pool:            pool,
		log:             log,
		metrics:         m,
		tracer:          otel.Tracer("athletehub/database"),
		rollbackTimeout: rollbackTimeout,
	}
}

// WithTransaction checks out a connection, runs fn inside a serializable
// transaction, and commits or rolls back. The connection is released on every
// path once it has been acquired. Failures are captured in the Result rather
// than returned, and nothing is retried.
func WithTransaction[T any](ctx context.Context, e *TxExecutor, label string, fn UnitOfWork[T]) Result[T] {
	res := Result[T]{TransactionID: uuid.NewString()}
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "tx "+label, trace.WithAttributes(
		attribute.String("db.tx.label", label),
		attribute.String("db.tx.id", res.TransactionID),
	))
	defer span.End()

	fail := func(op, outcome string, err error) Result[T] {
		res.Err = &TxError{Label: label, TransactionID: res.TransactionID, Op: op, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
		e.observe(label, outcome, start)
		return res
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		e.log.Error("acquiring connection failed",
			zap.String("tx_label", label),
			zap.String("tx_id", res.TransactionID),
			zap.Error(err),
		)
		return fail("acquire", "acquire_failed", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		e.log.Error("beginning transaction failed",
			zap.String("tx_label", label),
			zap.String("tx_id", res.TransactionID),
			zap.Error(err),
		)
		return fail("begin", "begin_failed", err)
	}

	data, err := runUnit(ctx, tx, fn)
	if err != nil {
		e.rollback(ctx, tx, label, res.TransactionID)
		e.log.Debug("transaction rolled back",
			zap.String("tx_label", label),
			zap.String("tx_id", res.TransactionID),
			zap.Error(err),
		)
		return fail("unit", "rolled_back", err)
	}

	if err := tx.Commit(ctx); err != nil {
		// pgx has already rolled back a failed commit; this is a no-op then.
		e.rollback(ctx, tx, label, res.TransactionID)
		e.log.Error("committing transaction failed",
			zap.String("tx_label", label),
			zap.String("tx_id", res.TransactionID),
			zap.Bool("serialization_failure", IsSerializationFailure(err)),
			zap.Error(err),
		)
		return fail("commit", "commit_failed", err)
	}

	e.observe(label, "committed", start)
	res.Success = true
	res.Data = data
	return res
}

func runUnit[T any](ctx context.Context, tx pgx.Tx, fn UnitOfWork[T]) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			data = zero
			err = fmt.Errorf("unit of work panicked: %v", r)
		}
	}()
	return fn(ctx, tx)
}

func (e *TxExecutor) rollback(ctx context.Context, tx pgx.Tx, label, id string) {
	// The caller's context may already be cancelled; rollback must still reach the store.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(rctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		e.log.Warn("rollback failed",
			zap.String("tx_label", label),
			zap.String("tx_id", id),
			zap.Error(err),
		)
	}
}

func (e *TxExecutor) observe(label, outcome string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.TxTotal.WithLabelValues(label, outcome).Inc()
	e.metrics.TxDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}
