package handler

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/service"
)

// reconciliationHandler ingests a batch of reconciliation data (a PIX
// notification array or raw CNAB text) and reports how many ledger
// rows were inserted.
func reconciliationHandler(ingestSvc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reconciliation")
		defer span.End()

		var req struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Type == "" || len(req.Data) == 0 {
			writeError(w, http.StatusBadRequest, "type and data are required")
			return
		}
		span.SetAttributes(attribute.String("ingest.source", req.Type))

		inserted, err := ingestSvc.Ingest(ctx, req.Type, req.Data)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
	}
}
