package cnab

import (
	"strconv"
	"strings"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// ParseRetorno extracts the batch identity from the first line of an
// inbound retorno document: the batch number from columns 2-5 and the
// branch code from columns 6-15 (both 1-indexed, trimmed). Lines after
// the first are not inspected.
//
// Known constraint: a batch number that parses to 0 is rejected as
// malformed, so a file legitimately numbered 0 is indistinguishable
// from a broken one. This mirrors the bank's file contract.
func ParseRetorno(content string) (*domain.RetornoHeader, error) {
	line, _, _ := strings.Cut(content, "\n")
	line = strings.TrimSuffix(line, "\r")

	batchNumber, err := strconv.Atoi(strings.TrimSpace(sliceColumns(line, 1, 5)))
	if err != nil || batchNumber == 0 {
		return nil, &domain.ErrInvalidFormat{Reason: "batch number columns 2-5 are not a non-zero number"}
	}

	branchCode := strings.TrimSpace(sliceColumns(line, 5, 15))
	if branchCode == "" {
		return nil, &domain.ErrInvalidFormat{Reason: "branch code columns 6-15 are empty"}
	}

	return &domain.RetornoHeader{BatchNumber: batchNumber, BranchCode: branchCode}, nil
}

// ValidateRetorno parses content and compares the extracted identity
// against the expected values. A mismatch is a normal business outcome
// and is reported through the boolean, never as an error; only a parse
// failure returns a non-nil error. The parsed header is returned in
// both cases so callers can surface it in diagnostics.
func ValidateRetorno(content string, expectedBatchNumber int, expectedBranchCode string) (*domain.RetornoHeader, bool, error) {
	header, err := ParseRetorno(content)
	if err != nil {
		return nil, false, err
	}
	ok := header.BatchNumber == expectedBatchNumber && header.BranchCode == expectedBranchCode
	return header, ok, nil
}

// sliceColumns returns line[from:to] (0-indexed, half-open), tolerating
// lines shorter than the requested range.
func sliceColumns(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}
