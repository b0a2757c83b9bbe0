package model

import "time"

// Measurement is one observed KPI value for an account, as ingested.
// RawValue is kept verbatim ("87%", "$1,250", "N/A"); parsing happens at
// scoring time so a bad value can be reported instead of silently dropped.
type Measurement struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ProductID string    `json:"product_id,omitempty"`
	KPI       string    `json:"kpi"`
	RawValue  string    `json:"raw_value"`
	Component string    `json:"component,omitempty"` // ingest-time category label, provenance only
	CreatedAt time.Time `json:"created_at"`
}

// Account is the minimal account record the engine needs: an identity plus
// the size metric (annual revenue / contract value) used for weighted rollups.
type Account struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Vertical   string   `json:"vertical,omitempty"`
	SizeMetric *float64 `json:"size_metric,omitempty"`
	OptOut     bool     `json:"opt_out,omitempty"` // excluded from corporate rollups on request
}
