// Package reconciliation normalizes external payment notifications
// (PIX JSON or raw CNAB text) into uniform ledger records.
package reconciliation

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// cnabAmountFrom/To are the 0-indexed bounds of the amount column range
// of inbound CNAB lines (1-indexed positions 21-32). Inbound retorno
// lines use a different product layout than outbound remessa details,
// where the amount sits further right.
const (
	cnabAmountFrom = 20
	cnabAmountTo   = 32
)

// Normalize maps a payload of the given source type to ledger records.
// It fails on an unknown source type, on a payload whose shape does not
// match the type, and on a payload yielding zero records — an empty
// ingestion almost always means a malformed upload, not an empty batch.
func Normalize(sourceType string, payload json.RawMessage) ([]domain.ReconciliationRecord, error) {
	var records []domain.ReconciliationRecord

	switch sourceType {
	case domain.SourcePix:
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, &domain.ErrValidation{Field: "data", Message: "pix payload must be a JSON array"}
		}
		for _, raw := range items {
			var notif domain.PixNotification
			if err := json.Unmarshal(raw, &notif); err != nil {
				return nil, &domain.ErrValidation{Field: "data", Message: "pix payload must be an array of objects"}
			}
			records = append(records, NormalizePix(notif, raw))
		}

	case domain.SourceCNAB:
		var text string
		if err := json.Unmarshal(payload, &text); err != nil {
			return nil, &domain.ErrValidation{Field: "data", Message: "cnab payload must be raw text"}
		}
		records = NormalizeCNAB(text)

	default:
		return nil, &domain.ErrValidation{Field: "type", Message: "must be \"pix\" or \"cnab\""}
	}

	if len(records) == 0 {
		return nil, &domain.ErrValidation{Field: "data", Message: "payload produced no records"}
	}
	return records, nil
}

// NormalizePix maps one PIX notification to a ledger record. The
// reference falls back from txid to e2eId, and to the empty string
// when both are absent: the persisted referencia column is NOT NULL,
// so an unreferenced notification lands as "" rather than null. The
// amount falls back from valor to amount; the status defaults to
// "pendente". raw is retained verbatim for audit.
func NormalizePix(notif domain.PixNotification, raw json.RawMessage) domain.ReconciliationRecord {
	reference := notif.TxID
	if reference == "" {
		reference = notif.E2EID
	}
	amount := notif.Valor
	if amount == nil {
		amount = notif.Amount
	}
	status := notif.Status
	if status == "" {
		status = domain.StatusPendente
	}
	return domain.ReconciliationRecord{
		Type:       domain.SourcePix,
		Reference:  reference,
		Amount:     amount,
		Status:     status,
		RawPayload: string(raw),
	}
}

// NormalizeCNAB maps each non-empty line of raw CNAB text to a ledger
// record: the reference is the trimmed first 20 characters, the amount
// is parsed from columns 21-32 (nil if unparseable), the status is
// always "pendente".
func NormalizeCNAB(text string) []domain.ReconciliationRecord {
	var records []domain.ReconciliationRecord
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		reference := line
		if len(reference) > domain.IdentifierWidth {
			reference = reference[:domain.IdentifierWidth]
		}

		var amount *decimal.Decimal
		if len(line) > cnabAmountFrom {
			to := cnabAmountTo
			if to > len(line) {
				to = len(line)
			}
			if v, err := decimal.NewFromString(strings.TrimSpace(line[cnabAmountFrom:to])); err == nil {
				amount = &v
			}
		}

		records = append(records, domain.ReconciliationRecord{
			Type:       domain.SourceCNAB,
			Reference:  strings.TrimSpace(reference),
			Amount:     amount,
			Status:     domain.StatusPendente,
			RawPayload: line,
		})
	}
	return records
}
