package types

import "encoding/json"

// WidgetPayload is the export request as posted by the ThingsBoard widget
// (or read from a payload JSON file in CLI mode).
type WidgetPayload struct {
	Timezone  string         `json:"timezone"`
	TimeEpoch TimeEpoch      `json:"timeEpoch"`
	Entities  []PayloadEntity `json:"entities"`
	Keys      []string       `json:"keys"`
	Query     PayloadQuery   `json:"query"`

	// ReportConfig is kept raw; the config repository resolves it against
	// the defaults section by section.
	ReportConfig json.RawMessage `json:"reportConfig"`
}

// TimeEpoch is the requested closed time range in epoch milliseconds.
type TimeEpoch struct {
	StartTsMs *int64 `json:"startTs_ms"`
	EndTsMs   *int64 `json:"endTs_ms"`
}

// PayloadEntity is one entity reference as sent by the widget.
type PayloadEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PayloadQuery mirrors the widget's query section.
type PayloadQuery struct {
	Agg      string `json:"agg"`
	Interval *int64 `json:"interval"`
	Limit    *int   `json:"limit"`
	Order    string `json:"order"`
}
