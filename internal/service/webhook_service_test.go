package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/domain"
	"github.com/lotefacil/cnab-gateway/internal/infra/observability"
	"github.com/lotefacil/cnab-gateway/internal/pixhook"
	"github.com/lotefacil/cnab-gateway/internal/service"
)

func newWebhookService(secret string, store *mockLedgerStore) *service.WebhookService {
	return service.NewWebhookService(secret, 5*time.Minute, store, observability.NewMetrics(), zap.NewNop())
}

func TestAuthenticate_MissingSecretFailsClosed(t *testing.T) {
	svc := newWebhookService("", &mockLedgerStore{})

	err := svc.Authenticate([]byte(`{}`), "whatever")

	var cfg *domain.ErrConfiguration
	if !errors.As(err, &cfg) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestAuthenticate_InvalidSignature(t *testing.T) {
	svc := newWebhookService("supersecret", &mockLedgerStore{})

	err := svc.Authenticate([]byte(`{"a":1}`), "deadbeef")

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticate_ValidSignature(t *testing.T) {
	svc := newWebhookService("supersecret", &mockLedgerStore{})
	body := []byte(`{"pix":[{"txid":"abc123","valor":10.5}]}`)

	if err := svc.Authenticate(body, pixhook.Sign(body, "supersecret")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestProcess_PersistsEnvelopeNotifications(t *testing.T) {
	store := &mockLedgerStore{}
	svc := newWebhookService("supersecret", store)

	svc.Process(context.Background(), []byte(`{"pix":[{"txid":"abc123","valor":10.5},{"e2eId":"E2E-9"}]}`))

	if len(store.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(store.records))
	}
	if store.records[0].Reference != "abc123" || store.records[1].Reference != "E2E-9" {
		t.Errorf("unexpected references: %q, %q", store.records[0].Reference, store.records[1].Reference)
	}
}

func TestProcess_SingleObjectBody(t *testing.T) {
	store := &mockLedgerStore{}
	svc := newWebhookService("supersecret", store)

	svc.Process(context.Background(), []byte(`{"txid":"solo","valor":1}`))

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	if store.records[0].Reference != "solo" {
		t.Errorf("expected reference solo, got %q", store.records[0].Reference)
	}
}

func TestProcess_DropsRedeliveredNotifications(t *testing.T) {
	store := &mockLedgerStore{}
	svc := newWebhookService("supersecret", store)
	body := []byte(`[{"txid":"dup-1","valor":5}]`)

	svc.Process(context.Background(), body)
	svc.Process(context.Background(), body)

	if len(store.records) != 1 {
		t.Errorf("redelivery within dedupe window must be dropped, got %d records", len(store.records))
	}
}

func TestProcess_StoreFailureDoesNotPanic(t *testing.T) {
	store := &mockLedgerStore{err: errors.New("db down")}
	svc := newWebhookService("supersecret", store)

	// Best-effort: the webhook was already acknowledged.
	svc.Process(context.Background(), []byte(`[{"txid":"abc"}]`))
}
