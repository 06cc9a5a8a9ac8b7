package domain

import "github.com/shopspring/decimal"

// CNAB layout constants. Every line of a batch document is exactly
// LineWidth characters; widths below are the column widths of the
// individual fields.
const (
	LineWidth = 240

	BatchNumberWidth = 4
	BranchCodeWidth  = 10
	SequenceWidth    = 5
	IdentifierWidth  = 20
	AmountWidth      = 15
)

// Record type markers (first column of each line).
const (
	RecordTypeHeader  = "0"
	RecordTypeDetail  = "1"
	RecordTypeTrailer = "9"
)

// RemessaRecord is one payment instruction of an outbound batch.
// Constructed by the caller, consumed immutably by the encoder.
type RemessaRecord struct {
	// Identifier is the external reference ("nosso número"), at most
	// IdentifierWidth columns.
	Identifier string `json:"nossoNumero"`
	// Amount is the non-negative payment amount in currency units.
	Amount decimal.Decimal `json:"valor"`
}

// RetornoHeader is the parsed identity of an inbound batch file,
// extracted from its first line only.
type RetornoHeader struct {
	BatchNumber int    `json:"batchNumber"`
	BranchCode  string `json:"branchCode"`
}
