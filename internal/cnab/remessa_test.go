package cnab_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lotefacil/cnab-gateway/internal/cnab"
	"github.com/lotefacil/cnab-gateway/internal/domain"
)

func record(id string, amount float64) domain.RemessaRecord {
	return domain.RemessaRecord{Identifier: id, Amount: decimal.NewFromFloat(amount)}
}

func TestGenerateRemessa_Structure(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	doc, err := enc.GenerateRemessa(42, "0001000001", []domain.RemessaRecord{
		record("LOTE-A-0001", 100),
		record("LOTE-A-0002", 250.75),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(doc, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 2 details + trailer, got %d lines", len(lines))
	}

	if lines[0][0:1] != domain.RecordTypeHeader {
		t.Errorf("header marker: expected %q, got %q", domain.RecordTypeHeader, lines[0][0:1])
	}
	if lines[1][0:1] != domain.RecordTypeDetail || lines[2][0:1] != domain.RecordTypeDetail {
		t.Error("detail lines must carry marker '1'")
	}
	if lines[3][0:1] != domain.RecordTypeTrailer {
		t.Errorf("trailer marker: expected %q, got %q", domain.RecordTypeTrailer, lines[3][0:1])
	}

	if lines[0][1:5] != "0042" {
		t.Errorf("batch number: expected %q, got %q", "0042", lines[0][1:5])
	}
	if lines[0][5:15] != "0001000001" {
		t.Errorf("branch code: expected %q, got %q", "0001000001", lines[0][5:15])
	}
	if !strings.HasPrefix(lines[0][15:], "HEADER") {
		t.Errorf("expected HEADER literal at column 16, got %q", lines[0][15:21])
	}
	if !strings.HasPrefix(lines[3][15:], "TRAILER") {
		t.Errorf("expected TRAILER literal at column 16, got %q", lines[3][15:22])
	}
}

func TestGenerateRemessa_EveryLineExactly240(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	doc, err := enc.GenerateRemessa(9999, "FIL01", []domain.RemessaRecord{
		record("A", 0.01),
		record("B-00000000000000001", 9999999999999.99),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, line := range strings.Split(doc, "\n") {
		if len(line) != domain.LineWidth {
			t.Errorf("line %d: expected %d chars, got %d", i, domain.LineWidth, len(line))
		}
	}
}

func TestGenerateRemessa_DetailFields(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	doc, err := enc.GenerateRemessa(7, "FIL01", []domain.RemessaRecord{
		record("NN-123", 1234.5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	detail := strings.Split(doc, "\n")[1]
	if detail[15:20] != "00001" {
		t.Errorf("sequence: expected %q, got %q", "00001", detail[15:20])
	}
	if detail[20:40] != "NN-123              " {
		t.Errorf("identifier: expected left-aligned 20-wide, got %q", detail[20:40])
	}
	if detail[40:55] != "000000000123450" {
		t.Errorf("amount: expected %q, got %q", "000000000123450", detail[40:55])
	}
}

func TestGenerateRemessa_SequencePreservesInputOrder(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	ids := []string{"THIRD", "FIRST", "SECOND"}
	records := make([]domain.RemessaRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, record(id, 1))
	}

	doc, err := enc.GenerateRemessa(1, "F", records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(doc, "\n")
	for i, id := range ids {
		detail := lines[i+1]
		if got := strings.TrimSpace(detail[20:40]); got != id {
			t.Errorf("detail %d: expected identifier %q, got %q", i+1, id, got)
		}
	}
}

func TestGenerateRemessa_RejectsOversizedIdentifier(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	_, err := enc.GenerateRemessa(1, "F", []domain.RemessaRecord{
		record("THIS-IDENTIFIER-IS-WAY-TOO-LONG", 1),
	})

	var overflow *domain.ErrFieldOverflow
	if !errors.As(err, &overflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
	if overflow.Field != "identifier" {
		t.Errorf("expected field 'identifier', got %q", overflow.Field)
	}
}

func TestGenerateRemessa_TruncatePolicyKeepsLegacyBehavior(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowTruncate)

	doc, err := enc.GenerateRemessa(1, "F", []domain.RemessaRecord{
		record("THIS-IDENTIFIER-IS-WAY-TOO-LONG", 1),
	})
	if err != nil {
		t.Fatalf("truncate policy must not error: %v", err)
	}

	detail := strings.Split(doc, "\n")[1]
	if detail[20:40] != "THIS-IDENTIFIER-IS-W" {
		t.Errorf("expected silent truncation to 20 chars, got %q", detail[20:40])
	}
}

func TestGenerateRemessa_RejectsNonPositiveBatch(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	for _, batch := range []int{0, -3} {
		_, err := enc.GenerateRemessa(batch, "F", nil)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("batch %d: expected ErrValidation, got %v", batch, err)
		}
	}
}

func TestGenerateRemessa_RejectsNegativeAmount(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	_, err := enc.GenerateRemessa(1, "F", []domain.RemessaRecord{record("X", -10)})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateRemessa_RejectsNonASCIIBranch(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	_, err := enc.GenerateRemessa(1, "SÃO01", nil)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for non-ASCII branch, got %v", err)
	}
}

func TestGenerateRemessa_EmptyBatchIsHeaderAndTrailerOnly(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)

	doc, err := enc.GenerateRemessa(12, "FIL", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines := strings.Split(doc, "\n"); len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
	if strings.HasSuffix(doc, "\n") {
		t.Error("document must not carry a trailing newline")
	}
}

func TestGenerateRemessa_Idempotent(t *testing.T) {
	enc := cnab.NewEncoder(cnab.OverflowReject)
	records := []domain.RemessaRecord{record("NN-1", 10.5), record("NN-2", 20)}

	first, err := enc.GenerateRemessa(5, "FIL", records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := enc.GenerateRemessa(5, "FIL", records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("identical input must yield byte-identical output")
	}
}
