package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/lotefacil/cnab-gateway/internal/pixhook"
	"github.com/lotefacil/cnab-gateway/internal/service"
)

// maxWebhookSize bounds the raw webhook body held for signing.
const maxWebhookSize = 1 << 20

// pixWebhookHandler gates PIX payment notifications behind HMAC
// signature verification. The body is read raw and verified BEFORE any
// JSON decoding: re-serializing parsed JSON does not reproduce the
// signed bytes.
func pixWebhookHandler(webhookSvc *service.WebhookService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/webhooks/pix")
		defer span.End()

		rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}

		signature := r.Header.Get(pixhook.SignatureHeader)
		if err := webhookSvc.Authenticate(rawBody, signature); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		webhookSvc.Process(ctx, rawBody)

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
