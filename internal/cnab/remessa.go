package cnab

import (
	"strconv"
	"strings"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// OverflowPolicy controls what the encoder does with a value wider
// than its fixed column.
type OverflowPolicy int

const (
	// OverflowReject fails the encode with domain.ErrFieldOverflow
	// before any line is built. This is the default: a silently
	// truncated field corrupts a payment instruction.
	OverflowReject OverflowPolicy = iota
	// OverflowTruncate keeps the legacy behavior of truncating
	// oversized values to their column width without error.
	OverflowTruncate
)

// Encoder assembles remessa batch documents. The zero value rejects
// overflowing fields.
type Encoder struct {
	policy OverflowPolicy
}

// NewEncoder returns an encoder with the given overflow policy.
func NewEncoder(policy OverflowPolicy) *Encoder {
	return &Encoder{policy: policy}
}

// GenerateRemessa builds a complete batch document: one header line,
// one detail line per record in input order (order is the settlement
// sequence), and one trailer line. Lines are newline-joined with no
// trailing newline; every line is exactly domain.LineWidth characters.
func (e *Encoder) GenerateRemessa(batchNumber int, branchCode string, records []domain.RemessaRecord) (string, error) {
	if batchNumber <= 0 {
		return "", &domain.ErrValidation{Field: "batchNumber", Message: "must be positive"}
	}
	if err := e.checkTextField("branchCode", branchCode, domain.BranchCodeWidth); err != nil {
		return "", err
	}

	batch := Pad(strconv.Itoa(batchNumber), domain.BatchNumberWidth, '0', AlignLeft)
	branch := Pad(branchCode, domain.BranchCodeWidth, ' ', AlignRight)

	lines := make([]string, 0, len(records)+2)
	lines = append(lines, ComposeLine(domain.RecordTypeHeader, batch, branch, "HEADER"))

	for i, rec := range records {
		if err := e.checkTextField("identifier", rec.Identifier, domain.IdentifierWidth); err != nil {
			return "", err
		}
		amountDigits, err := e.amountDigits(rec)
		if err != nil {
			return "", err
		}
		lines = append(lines, ComposeLine(
			domain.RecordTypeDetail,
			batch,
			branch,
			Pad(strconv.Itoa(i+1), domain.SequenceWidth, '0', AlignLeft),
			Pad(rec.Identifier, domain.IdentifierWidth, ' ', AlignRight),
			Pad(amountDigits, domain.AmountWidth, '0', AlignLeft),
		))
	}

	lines = append(lines, ComposeLine(domain.RecordTypeTrailer, batch, branch, "TRAILER"))
	return strings.Join(lines, "\n"), nil
}

// amountDigits formats the amount to exactly two decimal places and
// strips the decimal point, e.g. 1234.5 -> "123450".
func (e *Encoder) amountDigits(rec domain.RemessaRecord) (string, error) {
	if e.policy == OverflowReject && rec.Amount.IsNegative() {
		return "", &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	digits := strings.Replace(rec.Amount.StringFixed(2), ".", "", 1)
	if e.policy == OverflowReject && len(digits) > domain.AmountWidth {
		return "", &domain.ErrFieldOverflow{Field: "amount", Width: domain.AmountWidth, Value: digits}
	}
	return digits, nil
}

// checkTextField enforces the width (under the reject policy) and the
// ASCII-only assumption the column accounting depends on. Multi-byte
// text would misalign every column to its right.
func (e *Encoder) checkTextField(field, value string, width int) error {
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return &domain.ErrValidation{Field: field, Message: "must be printable ASCII"}
		}
	}
	if e.policy == OverflowReject && len(value) > width {
		return &domain.ErrFieldOverflow{Field: field, Width: width, Value: value}
	}
	return nil
}
