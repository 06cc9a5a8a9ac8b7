package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/infra/observability"
	"github.com/lotefacil/cnab-gateway/internal/port"
	"github.com/lotefacil/cnab-gateway/internal/reconciliation"
)

// IngestService normalizes reconciliation payloads and persists the
// resulting ledger records.
type IngestService struct {
	store   port.LedgerStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewIngestService wires the ingestion pipeline.
func NewIngestService(store port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *IngestService {
	return &IngestService{store: store, metrics: metrics, logger: logger}
}

// Ingest normalizes payload for the given source type and bulk-inserts
// the records, returning the inserted count. Validation errors from the
// normalizer pass through untouched so the handler can map them to 400.
func (s *IngestService) Ingest(ctx context.Context, sourceType string, payload json.RawMessage) (int, error) {
	start := time.Now()

	records, err := reconciliation.Normalize(sourceType, payload)
	if err != nil {
		s.metrics.IncrIngestError(sourceType)
		return 0, err
	}

	inserted, err := s.store.BulkInsert(ctx, records)
	if err != nil {
		s.metrics.IncrIngestError(sourceType)
		s.metrics.IncrStoreError("ledger")
		s.logger.Error("ingest: persistence failed",
			zap.String("source", sourceType),
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return 0, err
	}

	s.metrics.IncrRecordsIngested(sourceType, inserted)
	s.metrics.RecordRequestDuration("ingest_"+sourceType, time.Since(start))
	s.logger.Info("ingest: records persisted",
		zap.String("source", sourceType),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}
