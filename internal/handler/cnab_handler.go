package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/cnab"
	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// maxRetornoSize bounds the multipart upload held in memory.
const maxRetornoSize = 10 << 20

// ============================================================
// Remessa generation — POST /v1/cnab/remessa
// ============================================================

func remessaGenerateHandler(encoder *cnab.Encoder, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/cnab/remessa")
		defer span.End()

		var req struct {
			Lote      int                    `json:"lote"`
			Filial    string                 `json:"filial"`
			Registros []domain.RemessaRecord `json:"registros"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(
			attribute.Int("remessa.lote", req.Lote),
			attribute.Int("remessa.records", len(req.Registros)),
		)

		doc, err := encoder.GenerateRemessa(req.Lote, req.Filial, req.Registros)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("remessa generated",
			zap.Int("lote", req.Lote),
			zap.String("filial", req.Filial),
			zap.Int("records", len(req.Registros)),
		)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, doc)
	}
}

// ============================================================
// Retorno upload — POST /v1/cnab/retorno (multipart/form-data)
// ============================================================

func retornoUploadHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/cnab/retorno")
		defer span.End()

		if err := r.ParseMultipartForm(maxRetornoSize); err != nil {
			writeError(w, http.StatusBadRequest, "file, lote and filial are required")
			return
		}

		filial := r.FormValue("filial")
		loteRaw := r.FormValue("lote")
		file, _, err := r.FormFile("file")
		if err != nil || filial == "" || loteRaw == "" {
			writeError(w, http.StatusBadRequest, "file, lote and filial are required")
			return
		}
		defer file.Close()

		lote, err := strconv.Atoi(loteRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "file, lote and filial are required")
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}

		header, ok, err := cnab.ValidateRetorno(string(content), lote, filial)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !ok {
			logger.Warn("retorno validation failed",
				zap.Int("expected_lote", lote),
				zap.String("expected_filial", filial),
				zap.Int("parsed_lote", header.BatchNumber),
				zap.String("parsed_filial", header.BranchCode),
			)
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"parsed": header,
				"expected": domain.RetornoHeader{
					BatchNumber: lote,
					BranchCode:  filial,
				},
			})
			return
		}

		writeJSON(w, http.StatusOK, header)
	}
}
