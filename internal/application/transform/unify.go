package transform

import (
	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// UnifyRows converts one entity's keyed series into unified rows, one per
// distinct timestamp. Keys are visited in request order so the result is
// deterministic regardless of map iteration. A later point for an existing
// timestamp overwrites the prior value for that key only (last-write-wins per
// key), which tolerates overlapping chunk boundaries. Points without a
// timestamp are dropped. Output order is insertion order of first-seen
// timestamps; sorting happens downstream.
func UnifyRows(label string, series entity.KeyedSeries, keys []string) []entity.UnifiedRow {
	rows := []entity.UnifiedRow{}
	index := map[int64]int{}

	for _, key := range keys {
		for _, p := range series[key] {
			if p.TS < 0 {
				continue
			}
			i, ok := index[p.TS]
			if !ok {
				i = len(rows)
				rows = append(rows, entity.UnifiedRow{
					TS:     p.TS,
					Entity: label,
					Values: map[string]*float64{},
				})
				index[p.TS] = i
			}
			rows[i].Values[key] = p.Value
		}
	}

	return rows
}
