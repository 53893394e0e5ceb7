package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/athletehub/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Handler  *Handler
	JWT      *auth.JWTManager
	Limiter  *IPRateLimiter
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	DB       Pinger
	Log      *zap.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		Recovery(d.Log),
		RequestContext(),
		Tracing(),
		Metrics(d.Metrics),
		RequestLogger(d.Log),
	)

	r.GET("/healthz", healthz(d.DB))
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler(d.Gatherer)))

	h := d.Handler
	api := r.Group("/api/v1", RateLimit(d.Limiter), Authenticate(d.JWT, d.Log))
	{
		regs := api.Group("/registrations")
		regs.POST("/:userId/approve", h.ApproveRegistration)
		regs.POST("/:userId/reject", h.RejectRegistration)

		docs := api.Group("/documents")
		docs.POST("", h.SubmitDocument)
		docs.POST("/:id/review", h.ReviewDocument)

		leaves := api.Group("/medical-leaves")
		leaves.POST("", h.SubmitMedicalLeave)
		leaves.POST("/:id/specialist-review", h.SpecialistReview)
		leaves.POST("/:id/coach-decision", h.CoachDecision)

		changes := api.Group("/profile-changes")
		changes.POST("", h.RequestProfileChange)
		changes.POST("/:id/review", h.ReviewProfileChange)

		sports := api.Group("/sport-registrations")
		sports.POST("", h.RequestSportRegistration)
		sports.POST("/:id/decision", h.DecideSportRegistration)
		sports.POST("/:id/cancel", h.CancelSportRegistration)

		audit := api.Group("/audit-logs")
		audit.GET("", h.ListAuditLogs)
		audit.GET("/denials", h.ListDenials)
		audit.GET("/actors/:id", h.ListActorActivity)
	}

	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
