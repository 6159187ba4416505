package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quillworks/campaign-service/internal/campaign_service/middleware"
	"github.com/quillworks/campaign-service/internal/platform/ratelimit"
)

// RouterConfig bundles what the HTTP surface needs beyond the handlers.
type RouterConfig struct {
	JWTAccessSecret string
	Limiter         ratelimit.Limiter
}

// NewRouter wires the campaign API. Reads require VIEWER, mutations require
// EDITOR; mutations are additionally rate limited per user.
func NewRouter(
	campaignHandler *CampaignHandler,
	schedulerHandler *SchedulerHandler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := middleware.AuthMiddleware(cfg.JWTAccessSecret, logger)
	viewer := middleware.RequireRole(middleware.RoleViewer, logger)
	editor := middleware.RequireRole(middleware.RoleEditor, logger)
	throttle := middleware.RateLimitMiddleware(cfg.Limiter, logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth)

		api.Group(func(reads chi.Router) {
			reads.Use(viewer)
			reads.Get("/campaigns", campaignHandler.ListCampaigns)
			reads.Get("/campaigns/{campaignID}", campaignHandler.GetCampaign)
			reads.Get("/campaigns/{campaignID}/stats", campaignHandler.GetStatistics)
			reads.Get("/scheduler/status", schedulerHandler.GetSchedulerStatus)
		})

		api.Group(func(writes chi.Router) {
			writes.Use(editor)
			writes.Use(throttle)
			writes.Post("/campaigns", campaignHandler.CreateCampaign)
			writes.Post("/campaigns/{campaignID}/schedule", campaignHandler.ScheduleCampaign)
			writes.Post("/campaigns/{campaignID}/pause", campaignHandler.PauseCampaign)
			writes.Post("/campaigns/{campaignID}/resume", campaignHandler.ResumeCampaign)
			writes.Post("/campaigns/{campaignID}/cancel", campaignHandler.CancelCampaign)
			writes.Post("/campaigns/{campaignID}/fail", campaignHandler.FailCampaign)
			writes.Post("/campaigns/{campaignID}/retries", campaignHandler.RetryDeliveries)
			writes.Post("/scheduler/run", schedulerHandler.RunScheduler)
		})
	})

	return r
}
