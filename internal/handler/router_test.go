package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/cnab"
	"github.com/lotefacil/cnab-gateway/internal/domain"
	"github.com/lotefacil/cnab-gateway/internal/handler"
	"github.com/lotefacil/cnab-gateway/internal/infra/observability"
	"github.com/lotefacil/cnab-gateway/internal/service"
)

// --- Test fixtures ---

type fakeLedgerStore struct {
	records []domain.ReconciliationRecord
	err     error
}

func (f *fakeLedgerStore) BulkInsert(_ context.Context, records []domain.ReconciliationRecord) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, records...)
	return len(records), nil
}

func (f *fakeLedgerStore) Ping(_ context.Context) error {
	return f.err
}

func newTestRouter(secret string, store *fakeLedgerStore) http.Handler {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	encoder := cnab.NewEncoder(cnab.OverflowReject)
	ingestSvc := service.NewIngestService(store, metrics, logger)
	webhookSvc := service.NewWebhookService(secret, 5*time.Minute, store, metrics, logger)
	return handler.NewRouter(encoder, ingestSvc, webhookSvc, store, metrics, logger)
}

// --- Operational endpoints ---

func TestHealthz(t *testing.T) {
	router := newTestRouter("s", &fakeLedgerStore{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter("s", &fakeLedgerStore{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter("s", &fakeLedgerStore{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIngestionMetricsSnapshot(t *testing.T) {
	router := newTestRouter("s", &fakeLedgerStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/ingestion", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
