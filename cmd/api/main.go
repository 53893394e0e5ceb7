package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/config"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain/permission"
	v1 "github.com/dmehra2102/prod-golang-projects/athletehub/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/notify"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/service"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("athletehub: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector("athletehub", reg)

	audit := service.NewAuditService(postgres.NewAuditRepository(pool), log.Named("audit"), m, cfg.Audit)

	sinks := []notify.Named{{Name: "inbox", Sink: notify.NewInbox(postgres.NewNotificationRepository(pool))}}
	var kafkaSink *notify.KafkaSink
	if cfg.Notification.KafkaEnabled {
		kafkaSink = notify.NewKafkaSink(cfg.Notification, log.Named("kafka"), m)
		sinks = append(sinks, notify.Named{Name: "kafka", Sink: kafkaSink})
	}
	notifier := notify.NewFanout(log.Named("notify"), m, sinks...)

	users := postgres.NewUserRepository(pool)
	guard := service.NewGuard(permission.Default(), service.NewClaimsResolver(users), pool, audit, m, log.Named("guard"))

	deps := service.WorkflowDeps{
		Guard:    guard,
		Tx:       database.NewTxExecutor(database.NewPool(pool), log.Named("tx"), m, cfg.Database.RollbackTimeout),
		Repos:    postgres.Repositories,
		DB:       pool,
		Audit:    audit,
		Notifier: notifier,
		Metrics:  m,
		Log:      log,
	}

	handler := v1.NewHandler(v1.Services{
		Registrations:      service.NewRegistrationService(deps),
		Documents:          service.NewDocumentService(deps),
		MedicalLeaves:      service.NewMedicalLeaveService(deps),
		ProfileChanges:     service.NewProfileChangeService(deps),
		SportRegistrations: service.NewSportRegistrationService(deps),
		Audit:              service.NewAuditQueryService(guard, audit),
	}, log)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := v1.NewIPRateLimiter(cfg.RateLimit)
	go sweepLimiter(ctx, limiter)

	srv := &http.Server{
		Addr: cfg.Server.Address(),
		Handler: v1.NewRouter(v1.RouterDeps{
			Handler:  handler,
			JWT:      auth.NewJWTManager(cfg.JWT),
			Limiter:  limiter,
			Metrics:  m,
			Gatherer: reg,
			DB:       pool,
			Log:      log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	// Workflows have stopped; drain what they queued before the pool goes.
	audit.Shutdown()

	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.Warn("closing kafka writer", zap.Error(err))
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", zap.Error(err))
	}

	log.Info("shutdown complete", zap.Int("audit_dropped", int(audit.Dropped())))
	return nil
}

func sweepLimiter(ctx context.Context, l *v1.IPRateLimiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}
