package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/domain"
	"github.com/lotefacil/cnab-gateway/internal/infra/cache"
	"github.com/lotefacil/cnab-gateway/internal/infra/observability"
	"github.com/lotefacil/cnab-gateway/internal/pixhook"
	"github.com/lotefacil/cnab-gateway/internal/port"
	"github.com/lotefacil/cnab-gateway/internal/reconciliation"
)

// WebhookService authenticates and processes inbound PIX webhooks.
type WebhookService struct {
	secret  string
	seen    *cache.InMemory[struct{}]
	store   port.LedgerStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewWebhookService creates the webhook gate. dedupeTTL bounds the
// window in which redelivered notifications are dropped by reference.
func NewWebhookService(secret string, dedupeTTL time.Duration, store port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		secret:  secret,
		seen:    cache.New[struct{}](dedupeTTL),
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Authenticate verifies the signature over the raw request body.
// A missing secret is a server misconfiguration and fails closed with
// ErrConfiguration; a bad signature is a normal auth rejection.
func (s *WebhookService) Authenticate(rawBody []byte, providedSignature string) error {
	if s.secret == "" {
		return &domain.ErrConfiguration{Setting: "PIX_WEBHOOK_SECRET"}
	}
	if !pixhook.Verify(rawBody, providedSignature, s.secret) {
		s.metrics.IncrWebhook("rejected")
		return &domain.ErrUnauthorized{Message: "invalid signature"}
	}
	s.metrics.IncrWebhook("accepted")
	return nil
}

// Process normalizes an authenticated webhook body into ledger records
// and persists them best-effort. The payload may be a {"pix":[...]}
// envelope, a bare notification array, or a single notification object.
// Redeliveries within the dedupe window are dropped by reference.
// Failures are logged, never surfaced: the webhook was already
// accepted by the signature check.
func (s *WebhookService) Process(ctx context.Context, rawBody []byte) {
	items := notificationItems(rawBody)

	var records []domain.ReconciliationRecord
	for _, raw := range items {
		var notif domain.PixNotification
		if err := json.Unmarshal(raw, &notif); err != nil {
			s.logger.Warn("webhook: undecodable notification, skipping",
				zap.ByteString("payload", raw),
			)
			continue
		}
		rec := reconciliation.NormalizePix(notif, raw)
		if rec.Reference != "" {
			if _, dup := s.seen.Get(rec.Reference); dup {
				s.metrics.IncrWebhook("duplicate")
				s.logger.Debug("webhook: duplicate notification dropped",
					zap.String("reference", rec.Reference),
				)
				continue
			}
			s.seen.Set(rec.Reference, struct{}{})
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return
	}

	inserted, err := s.store.BulkInsert(ctx, records)
	if err != nil {
		s.metrics.IncrStoreError("ledger")
		s.logger.Error("webhook: persistence failed",
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncrRecordsIngested(domain.SourcePix, inserted)
	s.logger.Info("webhook: notifications persisted", zap.Int("inserted", inserted))
}

// notificationItems unwraps the supported webhook body shapes into
// individual notification payloads.
func notificationItems(rawBody []byte) []json.RawMessage {
	var envelope struct {
		Pix []json.RawMessage `json:"pix"`
	}
	if err := json.Unmarshal(rawBody, &envelope); err == nil && len(envelope.Pix) > 0 {
		return envelope.Pix
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawBody, &items); err == nil {
		return items
	}
	return []json.RawMessage{rawBody}
}
