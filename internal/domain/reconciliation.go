package domain

import "github.com/shopspring/decimal"

// Reconciliation source types.
const (
	SourcePix  = "pix"
	SourceCNAB = "cnab"
)

// StatusPendente is the default status of a ledger entry whose source
// did not carry one.
const StatusPendente = "pendente"

// PixNotification is one payment object of an inbound PIX webhook or
// reconciliation upload. Field names follow the provider's payload.
type PixNotification struct {
	TxID   string           `json:"txid"`
	E2EID  string           `json:"e2eId"`
	Valor  *decimal.Decimal `json:"valor"`
	Amount *decimal.Decimal `json:"amount"`
	Status string           `json:"status"`
}

// ReconciliationRecord is a normalized ledger entry, produced from
// either a PIX notification or a CNAB line. The JSON field names match
// the persisted column contract (tipo, referencia, valor, status, dados).
type ReconciliationRecord struct {
	Type       string           `json:"tipo"`
	Reference  string           `json:"referencia"`
	Amount     *decimal.Decimal `json:"valor"`
	Status     string           `json:"status"`
	RawPayload string           `json:"dados"`
}
