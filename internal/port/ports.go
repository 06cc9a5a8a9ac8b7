// Package port defines the interfaces between services and infrastructure.
package port

import (
	"context"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// LedgerStore persists normalized reconciliation records.
type LedgerStore interface {
	// BulkInsert stores records and returns how many were inserted.
	BulkInsert(ctx context.Context, records []domain.ReconciliationRecord) (int, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
