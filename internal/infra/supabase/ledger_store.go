// Package supabase provides a ledger store backed by the Supabase
// PostgREST API. It persists normalized reconciliation records into the
// `reconciliations` table (columns tipo, referencia, valor, status, dados).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lotefacil/cnab-gateway/internal/domain"
	"github.com/lotefacil/cnab-gateway/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// insertChunkSize bounds the rows per PostgREST insert request.
const insertChunkSize = 500

// LedgerStore wraps HTTP calls to Supabase PostgREST.
type LedgerStore struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	bulkhead       *resilience.Bulkhead
	logger         *zap.Logger
}

// NewLedgerStore creates a Supabase-backed ledger store. Concurrent
// chunk inserts are bounded by cfg.MaxConcurrency.
func NewLedgerStore(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *LedgerStore {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &LedgerStore{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		bulkhead:       resilience.NewBulkhead(maxConcurrency),
		logger:         logger,
	}
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (s *LedgerStore) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, path)

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		s.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// BulkInsert stores records in chunks, inserting chunks concurrently.
// Each chunk goes through the circuit breaker and retry policy; the
// whole insert fails if any chunk fails.
func (s *LedgerStore) BulkInsert(ctx context.Context, records []domain.ReconciliationRecord) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.BulkInsert")
	defer span.End()
	span.SetAttributes(attribute.Int("records.count", len(records)))

	if len(records) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)

	for start := 0; start < len(records); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		g.Go(func() error {
			if err := s.bulkhead.Acquire(ctx); err != nil {
				return err
			}
			defer s.bulkhead.Release()

			payload, err := json.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("encode chunk: %w", err)
			}
			_, err = s.cb.Execute(func() (any, error) {
				return nil, resilience.RetryWithBackoff(ctx, s.cfg, func() error {
					_, err := s.doRequest(ctx, http.MethodPost, "reconciliations", payload)
					return err
				})
			})
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return &domain.ErrCircuitOpen{Service: "supabase"}
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return len(records), nil
}

// Ping checks PostgREST reachability with a minimal read.
func (s *LedgerStore) Ping(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodGet, "reconciliations?select=tipo&limit=1", nil)
	return err
}
