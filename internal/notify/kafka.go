package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrKafkaUnavailable = errors.New("kafka publisher unavailable")
	ErrKafkaBacklog     = errors.New("kafka publish queue full")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each notification as a JSON message keyed by the
// recipient, so one user's notices stay ordered within a partition.
//
// Send only encodes and enqueues; a single publisher goroutine talks to the
// brokers so a slow cluster never holds up the request that committed.
type KafkaSink struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan []kafka.Message
	done   chan struct{}
}

func NewKafkaSink(cfg config.NotificationConfig, log *zap.Logger, m *metrics.Collector) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaSink(w, cfg, log, m)
}

func newKafkaSink(w messageWriter, cfg config.NotificationConfig, log *zap.Logger, m *metrics.Collector) *KafkaSink {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 512
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	s := &KafkaSink{
		writer:  w,
		log:     log,
		metrics: m,
		now:     time.Now,
		timeout: cfg.PublishTimeout,
		queue:   make(chan []kafka.Message, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "notification-kafka",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	go s.run()
	return s
}

type kafkaEnvelope struct {
	notification.Notification
	SentAt time.Time `json:"sent_at"`
}

// Send queues the batch for publishing and never waits on the brokers.
func (s *KafkaSink) Send(_ context.Context, batch []notification.Notification) error {
	msgs := make([]kafka.Message, 0, len(batch))
	sentAt := s.now().UTC()
	for _, n := range batch {
		body, err := json.Marshal(kafkaEnvelope{Notification: n, SentAt: sentAt})
		if err != nil {
			return fmt.Errorf("encoding notification: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(n.UserID.String()),
			Value:   body,
			Headers: []kafka.Header{{Key: "type", Value: []byte(n.Type)}},
		})
	}

	if s.breaker.State() == gobreaker.StateOpen {
		return ErrKafkaUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrKafkaUnavailable
	}
	select {
	case s.queue <- msgs:
		return nil
	default:
		return ErrKafkaBacklog
	}
}

func (s *KafkaSink) run() {
	defer close(s.done)
	for msgs := range s.queue {
		s.publish(msgs)
	}
}

func (s *KafkaSink) publish(msgs []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.writer.WriteMessages(ctx, msgs...)
	})
	if err == nil {
		return
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrKafkaUnavailable
	}
	if s.metrics != nil {
		s.metrics.NotificationFailures.WithLabelValues("kafka").Inc()
	}
	s.log.Warn("publishing notifications",
		zap.Int("messages", len(msgs)),
		zap.Error(err),
	)
}

// Close stops accepting batches and waits for queued ones to be published
// before closing the writer.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	<-s.done
	return s.writer.Close()
}
