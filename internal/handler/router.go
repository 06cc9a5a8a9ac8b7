package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/cnab"
	"github.com/lotefacil/cnab-gateway/internal/domain"
	"github.com/lotefacil/cnab-gateway/internal/infra/observability"
	"github.com/lotefacil/cnab-gateway/internal/pixhook"
	"github.com/lotefacil/cnab-gateway/internal/port"
	"github.com/lotefacil/cnab-gateway/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(encoder *cnab.Encoder, ingestSvc *service.IngestService, webhookSvc *service.WebhookService, store port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// CNAB batch files
		r.Post("/cnab/remessa", remessaGenerateHandler(encoder, logger))
		r.Post("/cnab/retorno", retornoUploadHandler(logger))

		// Reconciliation ingestion
		r.Post("/reconciliation", reconciliationHandler(ingestSvc, logger))

		// PIX webhook: the payment provider calls this cross-origin, so
		// the webhook sub-router carries its own CORS handling. It must
		// be a mounted sub-router, not an inline group: chi only runs
		// group middleware inside registered method handlers, and the
		// OPTIONS preflight has none.
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type", pixhook.SignatureHeader},
				MaxAge:         300,
			}))
			r.Post("/pix", pixWebhookHandler(webhookSvc, logger))
		})

		// Ingestion metrics snapshot
		r.Get("/metrics/ingestion", ingestionMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Probes
// ============================================================

func healthzHandler(store port.LedgerStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "cnab-gateway", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("healthz: ledger store unreachable", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "ledger-store", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ingestionMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetIngestionSnapshot())
	}
}
