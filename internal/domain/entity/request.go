package entity

import "time"

// Sort orders accepted in the payload query.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// AggNone disables server-side aggregation.
const AggNone = "NONE"

// ExportRequest is the validated, capped and config-resolved form of a
// widget payload. It is built once per run and never mutated afterwards.
type ExportRequest struct {
	TimezoneName string         `json:"timezone"`
	Location     *time.Location `json:"-"`

	StartTs int64 `json:"start_ts"`
	EndTs   int64 `json:"end_ts"`

	Entities []EntityRef `json:"entities"`
	Keys     []string    `json:"keys"`

	Agg        string `json:"agg"`
	IntervalMs int64  `json:"interval_ms,omitempty"`
	Limit      int    `json:"limit"`
	Order      string `json:"order"`

	Report ReportConfig `json:"report_config"`
}

// Aggregated reports whether server-side aggregation with an interval is
// active, which is what makes timestamp snapping applicable.
func (r *ExportRequest) Aggregated() bool {
	return r.Agg != AggNone && r.IntervalMs > 0
}

// Descending reports whether tables should be sorted newest-first.
func (r *ExportRequest) Descending() bool {
	return r.Order == OrderDesc
}
