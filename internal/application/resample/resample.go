package resample

import (
	"sort"
	"strings"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// Resample aggregates the pivot table into calendar periods of one
// granularity. Only fully covered periods are emitted: a period counts when
// the data range reaches its completion cutoff and does not begin inside it.
// Covered periods without data still produce a row (sum aggregates to zero,
// everything else to an empty cell). Returns nil when no period qualifies.
func Resample(pivot *entity.PivotTable, g entity.Granularity, aggMap entity.AggMap, weekStart time.Weekday) *entity.AggregateTable {
	if pivot == nil || len(pivot.Rows) == 0 {
		return nil
	}

	rows := make([]entity.PivotRow, len(pivot.Rows))
	copy(rows, pivot.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	dataMin := rows[0].Timestamp
	dataMax := rows[len(rows)-1].Timestamp
	firstDay := floorDay(dataMin)
	partialFirstDay := !dataMin.Equal(firstDay)

	out := []entity.AggregateRow{}
	next := 0 // index of the first row not yet consumed

	for start := PeriodStart(dataMin, g, weekStart); !start.After(dataMax); start = NextPeriodStart(start, g) {
		end := NextPeriodStart(start, g)

		bucket := []entity.PivotRow{}
		for next < len(rows) && rows[next].Timestamp.Before(end) {
			if !rows[next].Timestamp.Before(start) {
				bucket = append(bucket, rows[next])
			}
			next++
		}

		if start.Before(firstDay) {
			continue
		}
		if completionCutoff(start, g).After(dataMax) {
			continue
		}
		if partialFirstDay && floorDay(start).Equal(firstDay) {
			continue
		}

		cells := map[string]*float64{}
		for _, col := range pivot.Columns {
			cells[col.Name] = aggregate(bucket, col.Name, aggFuncFor(col, aggMap))
		}
		out = append(out, entity.AggregateRow{Date: start, Cells: cells})
	}

	if len(out) == 0 {
		return nil
	}
	return &entity.AggregateTable{Granularity: g, Columns: pivot.Columns, Rows: out}
}

// All resamples the pivot table at every granularity, omitting those with no
// fully covered period.
func All(pivot *entity.PivotTable, aggMap entity.AggMap, weekStart time.Weekday) map[entity.Granularity]entity.AggregateTable {
	tables := map[entity.Granularity]entity.AggregateTable{}
	for _, g := range entity.Granularities {
		if t := Resample(pivot, g, aggMap, weekStart); t != nil {
			tables[g] = *t
		}
	}
	return tables
}

// aggFuncFor resolves the aggregation function for a column: the full column
// name wins, then the bare telemetry key, then the default entry.
func aggFuncFor(col entity.PivotColumn, aggMap entity.AggMap) string {
	if fn, ok := aggMap[col.Name]; ok {
		return normalizeAgg(fn)
	}
	if fn, ok := aggMap[col.Key]; ok {
		return normalizeAgg(fn)
	}
	if fn, ok := aggMap["default"]; ok {
		return normalizeAgg(fn)
	}
	return entity.AggMean
}

func normalizeAgg(fn string) string {
	switch strings.ToLower(fn) {
	case entity.AggSum, entity.AggMin, entity.AggMax, entity.AggFirst, entity.AggLast:
		return strings.ToLower(fn)
	}
	return entity.AggMean
}

// aggregate reduces one column over a period's rows. Cells that are absent or
// null are skipped. With no values, sum yields zero and the rest yield an
// empty cell.
func aggregate(bucket []entity.PivotRow, column string, fn string) *float64 {
	values := []float64{}
	for _, row := range bucket {
		if v, ok := row.Cells[column]; ok && v != nil {
			values = append(values, *v)
		}
	}

	if len(values) == 0 {
		if fn == entity.AggSum {
			zero := 0.0
			return &zero
		}
		return nil
	}

	var out float64
	switch fn {
	case entity.AggSum:
		for _, v := range values {
			out += v
		}
	case entity.AggMin:
		out = values[0]
		for _, v := range values[1:] {
			if v < out {
				out = v
			}
		}
	case entity.AggMax:
		out = values[0]
		for _, v := range values[1:] {
			if v > out {
				out = v
			}
		}
	case entity.AggFirst:
		out = values[0]
	case entity.AggLast:
		out = values[len(values)-1]
	default: // mean
		for _, v := range values {
			out += v
		}
		out /= float64(len(values))
	}

	return &out
}
