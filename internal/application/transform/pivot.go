package transform

import (
	"sort"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// TableOptions carries the resolved settings the table builders need.
type TableOptions struct {
	Location *time.Location
	// IntervalMs > 0 snaps pivot timestamps to interval starts; the server
	// labels aggregated buckets with their midpoint, so the pivot rewrites
	// each timestamp to rawTs - rawTs%IntervalMs. The raw table is never
	// snapped.
	IntervalMs int64
	ColumnMap  entity.ColumnMap
	Descending bool
}

// BuildRawTable assembles the long-format table from the unified rows of all
// entities, restricted to the requested keys that were actually observed.
// Timestamps are the original API timestamps converted to the request
// timezone. Rows are stably sorted by timestamp in the requested direction.
func BuildRawTable(rows []entity.UnifiedRow, keys []string, opts TableOptions) entity.RawTable {
	observed := map[string]bool{}
	for _, r := range rows {
		for k := range r.Values {
			observed[k] = true
		}
	}

	tableKeys := []string{}
	for _, k := range keys {
		if observed[k] {
			tableKeys = append(tableKeys, k)
		}
	}

	out := make([]entity.RawRow, 0, len(rows))
	for _, r := range rows {
		values := map[string]*float64{}
		for _, k := range tableKeys {
			if v, ok := r.Values[k]; ok {
				values[k] = v
			}
		}
		out = append(out, entity.RawRow{
			Timestamp: time.UnixMilli(r.TS).In(opts.Location),
			Entity:    r.Entity,
			Values:    values,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.Descending {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return entity.RawTable{Keys: tableKeys, Rows: out}
}

// BuildPivotTable reshapes the unified rows of all entities into the wide
// table. Rows are grouped by the snapped timestamp; on a collision after
// snapping the first observed value for an entity×key pair wins. Column
// order is the column_map's declared order first, then the remaining
// observed columns sorted by entity, then key.
func BuildPivotTable(rows []entity.UnifiedRow, keys []string, opts TableOptions) entity.PivotTable {
	type colID struct{ entity, key string }

	pivotRows := map[int64]*entity.PivotRow{}
	rowOrder := []int64{}
	observed := map[string]entity.PivotColumn{}
	colOrder := []colID{}

	for _, r := range rows {
		ts := r.TS
		if opts.IntervalMs > 0 {
			ts -= ts % opts.IntervalMs
		}

		row, ok := pivotRows[ts]
		if !ok {
			row = &entity.PivotRow{
				Timestamp: time.UnixMilli(ts).In(opts.Location),
				Cells:     map[string]*float64{},
			}
			pivotRows[ts] = row
			rowOrder = append(rowOrder, ts)
		}

		for _, k := range keys {
			v, ok := r.Values[k]
			if !ok {
				continue
			}
			name := r.Entity + " " + k
			if _, seen := observed[name]; !seen {
				observed[name] = entity.PivotColumn{Name: name, Entity: r.Entity, Key: k}
				colOrder = append(colOrder, colID{r.Entity, k})
			}
			// first observed value wins on snap collisions
			if _, exists := row.Cells[name]; !exists {
				row.Cells[name] = v
			}
		}
	}

	// column_map order first, then remaining columns by (entity, key)
	columns := []entity.PivotColumn{}
	placed := map[string]bool{}
	for _, name := range opts.ColumnMap.Keys() {
		if col, ok := observed[name]; ok {
			columns = append(columns, col)
			placed[name] = true
		}
	}
	remaining := []entity.PivotColumn{}
	for _, id := range colOrder {
		name := id.entity + " " + id.key
		if !placed[name] {
			remaining = append(remaining, observed[name])
		}
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].Entity != remaining[j].Entity {
			return remaining[i].Entity < remaining[j].Entity
		}
		return remaining[i].Key < remaining[j].Key
	})
	columns = append(columns, remaining...)

	sort.Slice(rowOrder, func(i, j int) bool {
		if opts.Descending {
			return rowOrder[i] > rowOrder[j]
		}
		return rowOrder[i] < rowOrder[j]
	})

	out := make([]entity.PivotRow, 0, len(rowOrder))
	for _, ts := range rowOrder {
		out = append(out, *pivotRows[ts])
	}

	return entity.PivotTable{Columns: columns, Rows: out}
}
