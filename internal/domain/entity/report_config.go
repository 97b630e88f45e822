package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Aggregation function names accepted in the agg_map.
const (
	AggMean  = "mean"
	AggSum   = "sum"
	AggMin   = "min"
	AggMax   = "max"
	AggFirst = "first"
	AggLast  = "last"
)

// AggMap maps a pivot column name or telemetry key to an aggregation
// function name. The "default" entry applies to anything not listed.
type AggMap map[string]string

// ColumnMap is the ordered column_map section of the report config.
// Key order matters: it drives pivot column ordering, so the map remembers
// the order keys were declared in the payload.
type ColumnMap struct {
	keys   []string
	labels map[string][]string
}

// NewColumnMap builds an empty ordered column map.
func NewColumnMap() ColumnMap {
	return ColumnMap{labels: map[string][]string{}}
}

// Set adds or replaces an entry, appending the key on first insert.
func (m *ColumnMap) Set(key string, labels []string) {
	if m.labels == nil {
		m.labels = map[string][]string{}
	}
	if _, ok := m.labels[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.labels[key] = labels
}

// Keys returns the column names in declaration order.
func (m ColumnMap) Keys() []string {
	return m.keys
}

// Labels returns the header label rows configured for a column.
func (m ColumnMap) Labels(key string) ([]string, bool) {
	l, ok := m.labels[key]
	return l, ok
}

// Len reports the number of configured columns.
func (m ColumnMap) Len() int {
	return len(m.keys)
}

// UnmarshalJSON decodes the object while preserving key declaration order,
// which encoding/json maps would lose.
func (m *ColumnMap) UnmarshalJSON(data []byte) error {
	*m = NewColumnMap()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("column_map: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var labels []string
		if err := dec.Decode(&labels); err != nil {
			return fmt.Errorf("column_map[%q]: %w", key, err)
		}
		m.Set(key, labels)
	}

	_, err = dec.Token() // closing brace
	return err
}

// MarshalJSON encodes the entries in declaration order.
func (m ColumnMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.labels[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SheetsConfig controls aggregated sheet behaviour.
type SheetsConfig struct {
	// WeekStart is "Sunday" or "Monday"; anything else means Monday.
	WeekStart string `json:"week_start"`
	// PartialPeriod is accepted from payloads for compatibility, but the
	// resampler always excludes partial periods regardless of its value.
	PartialPeriod bool `json:"partial_period"`
}

// WeekStartDay maps the configured week start name to a weekday.
func (s SheetsConfig) WeekStartDay() time.Weekday {
	if strings.EqualFold(s.WeekStart, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// FormattingConfig holds sheet names and visual styling for the export stage.
// The core pipeline treats it as opaque.
type FormattingConfig struct {
	SheetRaw     string `json:"sheet_raw"`
	SheetPivot   string `json:"sheet_pivot"`
	SheetDaily   string `json:"sheet_daily"`
	SheetWeekly  string `json:"sheet_weekly"`
	SheetMonthly string `json:"sheet_monthly"`
	SheetYearly  string `json:"sheet_yearly"`

	HeaderFillColors []string `json:"header_fill_colors"`
	HeaderFontBold   bool     `json:"header_font_bold"`
	HeaderFontSize   float64  `json:"header_font_size"`
	HeaderAlignment  string   `json:"header_alignment"`

	BorderStyle    string `json:"border_style"`
	NumberFormat   string `json:"number_format"`
	DatetimeFormat string `json:"datetime_format"`
	DateFormat     string `json:"date_format"`

	MaxColWidth float64 `json:"max_col_width"`
	MinColWidth float64 `json:"min_col_width"`

	// Freeze panes as [rows_to_freeze, cols_to_freeze] per sheet.
	FreezeRaw     [2]int `json:"freeze_raw"`
	FreezePivot   [2]int `json:"freeze_pivot"`
	FreezeDaily   [2]int `json:"freeze_daily"`
	FreezeWeekly  [2]int `json:"freeze_weekly"`
	FreezeMonthly [2]int `json:"freeze_monthly"`
	FreezeYearly  [2]int `json:"freeze_yearly"`
}

// SheetName returns the configured sheet name for a granularity, with a
// built-in fallback so a disabled formatting section still names its sheets.
func (f FormattingConfig) SheetName(g Granularity) string {
	var name, fallback string
	switch g {
	case GranularityDaily:
		name, fallback = f.SheetDaily, "Daily"
	case GranularityWeekly:
		name, fallback = f.SheetWeekly, "Weekly"
	case GranularityMonthly:
		name, fallback = f.SheetMonthly, "Monthly"
	case GranularityYearly:
		name, fallback = f.SheetYearly, "Yearly"
	default:
		return string(g)
	}
	if name == "" {
		return fallback
	}
	return name
}

// RawSheetName and PivotSheetName apply the same fallback for the two fixed
// sheets.
func (f FormattingConfig) RawSheetName() string {
	if f.SheetRaw == "" {
		return "Raw Data"
	}
	return f.SheetRaw
}

func (f FormattingConfig) PivotSheetName() string {
	if f.SheetPivot == "" {
		return "Pivot"
	}
	return f.SheetPivot
}

// FreezeFor returns the freeze-pane setting for a granularity sheet.
func (f FormattingConfig) FreezeFor(g Granularity) [2]int {
	switch g {
	case GranularityDaily:
		return f.FreezeDaily
	case GranularityWeekly:
		return f.FreezeWeekly
	case GranularityMonthly:
		return f.FreezeMonthly
	case GranularityYearly:
		return f.FreezeYearly
	}
	return [2]int{1, 1}
}

// ReportConfig is the resolved, immutable report configuration for one run:
// defaults merged with the payload's reportConfig overrides.
type ReportConfig struct {
	Filename          string           `json:"filename"`
	FilenameTimestamp bool             `json:"filename_timestamp"`
	ColumnMap         ColumnMap        `json:"column_map"`
	AggMap            AggMap           `json:"agg_map"`
	Sheets            SheetsConfig     `json:"sheets"`
	Formatting        FormattingConfig `json:"formatting"`
}
