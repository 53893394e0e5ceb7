package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

var testApp = config.AppConfig{Name: "athletehub-api", Environment: "test", Version: "1.2.3"}

func TestNewHonoursLevel(t *testing.T) {
	log, err := New(config.LogConfig{Level: "warn", Format: "console", OutputPath: "stdout"}, testApp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error should be enabled at warn level")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", Format: "json", OutputPath: "stdout"}, testApp); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New(config.LogConfig{Level: "info", Format: "xml", OutputPath: "stdout"}, testApp); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewTagsServiceIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", OutputPath: path}, testApp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("started")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var line map[string]any
	if err := json.Unmarshal(raw, &line); err != nil {
		t.Fatalf("decoding %q: %v", raw, err)
	}
	for k, want := range map[string]string{"service": "athletehub-api", "env": "test", "version": "1.2.3", "msg": "started"} {
		if line[k] != want {
			t.Errorf("%s = %v, want %q", k, line[k], want)
		}
	}
	if _, ok := line["ts"]; !ok {
		t.Error("timestamp key missing")
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := domain.WithClientIP(domain.WithRequestID(context.Background(), "req-42"), "10.0.0.9")
	FromContext(ctx, base).Info("scoped")
	FromContext(context.Background(), base).Info("bare")

	scoped := logs.FilterMessage("scoped").All()
	if len(scoped) != 1 {
		t.Fatalf("got %d scoped entries", len(scoped))
	}
	fields := scoped[0].ContextMap()
	if fields["request_id"] != "req-42" || fields["client_ip"] != "10.0.0.9" {
		t.Fatalf("fields = %v", fields)
	}

	bare := logs.FilterMessage("bare").All()
	if len(bare) != 1 || len(bare[0].Context) != 0 {
		t.Fatalf("request fields should be omitted without a request, got %v", bare)
	}
}
