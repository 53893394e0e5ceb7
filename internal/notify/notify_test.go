package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu     sync.Mutex
	err    error
	calls  int
	msgs   []kafka.Message
	closed bool
	// gate, when set, blocks WriteMessages until closed; entered is
	// signalled first.
	gate    chan struct{}
	entered chan struct{}
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.gate != nil {
		select {
		case w.entered <- struct{}{}:
		default:
		}
		select {
		case <-w.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type sinkFunc func(context.Context, []notification.Notification) error

func (f sinkFunc) Send(ctx context.Context, b []notification.Notification) error { return f(ctx, b) }

func sample() []notification.Notification {
	return []notification.Notification{
		{UserID: uuid.New(), Type: notification.TypeDocument, Title: "Document approved", Message: "Your identity document was approved."},
		{UserID: uuid.New(), Type: notification.TypeMedicalLeave, Title: "New request", Message: "A medical leave request needs review."},
	}
}

func TestKafkaSinkPublishesKeyedMessages(t *testing.T) {
	w := &fakeWriter{}
	s := newKafkaSink(w, config.NotificationConfig{}, zap.NewNop(), nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	batch := sample()
	if err := s.Send(context.Background(), batch); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	// Close drains the queue, so everything sent is on the writer afterwards.
	if err := s.Close(); err != nil || !w.closed {
		t.Fatal("Close() did not close the writer")
	}
	if len(w.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(w.msgs))
	}

	m := w.msgs[0]
	if string(m.Key) != batch[0].UserID.String() {
		t.Fatalf("key = %s", m.Key)
	}
	if len(m.Headers) != 1 || string(m.Headers[0].Value) != "document" {
		t.Fatalf("headers = %+v", m.Headers)
	}
	var got map[string]any
	if err := json.Unmarshal(m.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got["title"] != "Document approved" || got["sent_at"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("payload = %v", got)
	}
	if _, ok := got["action_url"]; ok {
		t.Fatal("empty action_url should be omitted")
	}

	if err := s.Send(context.Background(), batch); !errors.Is(err, ErrKafkaUnavailable) {
		t.Fatalf("Send() after Close = %v, want ErrKafkaUnavailable", err)
	}
}

func TestKafkaSinkBreakerOpens(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	w := &fakeWriter{err: errors.New("broker down")}
	s := newKafkaSink(w, config.NotificationConfig{BreakerFailures: 2, BreakerCooldown: time.Minute}, zap.New(core), m)
	defer s.Close()

	for i := 0; i < 2; i++ {
		if err := s.Send(context.Background(), sample()); err != nil {
			t.Fatalf("attempt %d: Send() = %v, publish errors are reported asynchronously", i, err)
		}
	}
	waitFor(t, func() bool { return w.callCount() == 2 })
	waitFor(t, func() bool { return logs.FilterMessage("publishing notifications").Len() == 2 })

	if err := s.Send(context.Background(), sample()); !errors.Is(err, ErrKafkaUnavailable) {
		t.Fatalf("err = %v, want ErrKafkaUnavailable", err)
	}
	if w.callCount() != 2 {
		t.Fatalf("writer called %d times, want 2", w.callCount())
	}
	if got := testutil.ToFloat64(m.NotificationFailures.WithLabelValues("kafka")); got != 2 {
		t.Fatalf("failure counter = %v, want 2", got)
	}
}

func TestKafkaSinkSendDoesNotWaitOnBrokers(t *testing.T) {
	w := &fakeWriter{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := newKafkaSink(w, config.NotificationConfig{QueueSize: 1, PublishTimeout: 5 * time.Second}, zap.NewNop(), nil)

	start := time.Now()
	if err := s.Send(context.Background(), sample()); err != nil {
		t.Fatal(err)
	}
	<-w.entered // publisher is stuck on the first batch

	if err := s.Send(context.Background(), sample()); err != nil {
		t.Fatalf("second batch should fill the queue, got %v", err)
	}
	if err := s.Send(context.Background(), sample()); !errors.Is(err, ErrKafkaBacklog) {
		t.Fatalf("err = %v, want ErrKafkaBacklog", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("Send() waited on a stalled writer")
	}

	close(w.gate)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if w.callCount() != 2 {
		t.Fatalf("writer called %d times, queued batches were not drained", w.callCount())
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.NewCollector("test", prometheus.NewRegistry())

	var inbox []notification.Notification
	ok := sinkFunc(func(_ context.Context, b []notification.Notification) error {
		inbox = append(inbox, b...)
		return nil
	})
	broken := sinkFunc(func(context.Context, []notification.Notification) error {
		return errors.New("unreachable")
	})

	f := NewFanout(zap.New(core), m, Named{Name: "kafka", Sink: broken}, Named{Name: "inbox", Sink: ok})
	err := f.Send(context.Background(), sample())
	if err == nil {
		t.Fatal("expected the kafka failure to be reported")
	}
	if len(inbox) != 2 {
		t.Fatalf("inbox got %d notifications, want 2", len(inbox))
	}
	if got := testutil.ToFloat64(m.NotificationFailures.WithLabelValues("kafka")); got != 1 {
		t.Fatalf("failure counter = %v", got)
	}
	if logs.FilterField(zap.String("sink", "kafka")).Len() != 1 {
		t.Fatal("failure not logged with sink name")
	}

	if err := f.Send(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

type recordingStore struct{ got []notification.Notification }

func (r *recordingStore) InsertBatch(_ context.Context, b []notification.Notification) error {
	r.got = append(r.got, b...)
	return nil
}

func TestInboxDelegatesToStore(t *testing.T) {
	store := &recordingStore{}
	if err := NewInbox(store).Send(context.Background(), sample()); err != nil {
		t.Fatal(err)
	}
	if len(store.got) != 2 {
		t.Fatalf("stored %d", len(store.got))
	}
}
