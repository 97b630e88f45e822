package entity

import "time"

// Granularity is one of the calendar periods aggregate tables are built for.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

// Granularities lists the supported periods in resampling order.
var Granularities = []Granularity{
	GranularityDaily,
	GranularityWeekly,
	GranularityMonthly,
	GranularityYearly,
}

// RawRow is one long-format row: original API timestamp converted to the
// request timezone, the entity label, and the values present at that instant.
type RawRow struct {
	Timestamp time.Time           `json:"timestamp"`
	Entity    string              `json:"entity"`
	Values    map[string]*float64 `json:"values"`
}

// RawTable is the long-format export of every unified row across entities.
// It always keeps the original API timestamps and feeds only the raw sheet,
// never the resampler.
type RawTable struct {
	Keys []string `json:"keys"`
	Rows []RawRow `json:"rows"`
}

// PivotColumn is one data column of the wide table, named "<entity> <key>".
type PivotColumn struct {
	Name   string `json:"name"`
	Entity string `json:"entity"`
	Key    string `json:"key"`
}

// PivotRow is one wide row keyed by a (possibly snapped) timestamp.
// Cells is keyed by PivotColumn.Name; absent columns have no cell at all.
type PivotRow struct {
	Timestamp time.Time           `json:"timestamp"`
	Cells     map[string]*float64 `json:"cells"`
}

// PivotTable is the wide table: one row per distinct snapped timestamp, one
// column per observed entity×key pair, in deterministic column order.
type PivotTable struct {
	Columns []PivotColumn `json:"columns"`
	Rows    []PivotRow    `json:"rows"`
}

// AggregateRow is one resampled row keyed by its period start date.
type AggregateRow struct {
	Date  time.Time           `json:"date"`
	Cells map[string]*float64 `json:"cells"`
}

// AggregateTable holds the aggregates for one granularity. Every row
// represents a fully covered calendar period; partial boundary periods are
// never emitted.
type AggregateTable struct {
	Granularity Granularity    `json:"granularity"`
	Columns     []PivotColumn  `json:"columns"`
	Rows        []AggregateRow `json:"rows"`
}

// TableSet is everything one export run produces, handed as a unit to the
// export adapters. Aggregates contains only granularities with at least one
// fully covered period.
type TableSet struct {
	Request    *ExportRequest                 `json:"request"`
	Raw        RawTable                       `json:"raw"`
	Pivot      PivotTable                     `json:"pivot"`
	Aggregates map[Granularity]AggregateTable `json:"aggregates"`
}
