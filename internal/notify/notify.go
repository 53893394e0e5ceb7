// Package notify delivers post-commit notifications to the in-app inbox and,
// when enabled, to a Kafka topic for downstream consumers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"go.uber.org/zap"
)

// Named pairs a sink with the label used in logs and metrics.
type Named struct {
	Name string
	Sink notification.Sink
}

// Fanout sends every batch to all sinks. One sink failing does not stop the
// others; the failures are joined into the returned error.
type Fanout struct {
	sinks   []Named
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewFanout(log *zap.Logger, m *metrics.Collector, sinks ...Named) *Fanout {
	return &Fanout{sinks: sinks, log: log, metrics: m}
}

func (f *Fanout) Send(ctx context.Context, batch []notification.Notification) error {
	if len(batch) == 0 {
		return nil
	}

	var errs []error
	for _, s := range f.sinks {
		if err := s.Sink.Send(ctx, batch); err != nil {
			f.metrics.NotificationFailures.WithLabelValues(s.Name).Inc()
			f.log.Warn("notification sink failed",
				zap.String("sink", s.Name),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

type batchInserter interface {
	InsertBatch(ctx context.Context, batch []notification.Notification) error
}

// Inbox writes notifications to the notifications table.
type Inbox struct {
	store batchInserter
}

func NewInbox(store batchInserter) *Inbox {
	return &Inbox{store: store}
}

func (i *Inbox) Send(ctx context.Context, batch []notification.Notification) error {
	return i.store.InsertBatch(ctx, batch)
}
