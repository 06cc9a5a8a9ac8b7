package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// IngestionMetrics is returned by GET /v1/metrics/ingestion.
type IngestionMetrics struct {
	RecordsIngested    int64   `json:"recordsIngested"`
	PixRecords         int64   `json:"pixRecords"`
	CnabRecords        int64   `json:"cnabRecords"`
	WebhookAccepted    int64   `json:"webhookAccepted"`
	WebhookRejected    int64   `json:"webhookRejected"`
	WebhookDuplicates  int64   `json:"webhookDuplicates"`
	IngestionErrorRate float64 `json:"ingestionErrorRate"`
	Period             string  `json:"period"`
}
