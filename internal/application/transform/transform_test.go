package transform

import (
	"testing"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestUnifyRowsMergesKeysPerTimestamp(t *testing.T) {
	series := entity.KeyedSeries{
		"temp": {{TS: 1000, Value: fp(21.5)}, {TS: 2000, Value: fp(22.0)}},
		"hum":  {{TS: 1000, Value: fp(60)}, {TS: 3000, Value: fp(55)}},
	}

	rows := UnifyRows("sensor1", series, []string{"temp", "hum"})

	require.Len(t, rows, 3)
	assert.Equal(t, int64(1000), rows[0].TS)
	assert.Equal(t, "sensor1", rows[0].Entity)
	assert.Equal(t, 21.5, *rows[0].Values["temp"])
	assert.Equal(t, 60.0, *rows[0].Values["hum"])

	// 3000 only has hum
	assert.Equal(t, int64(3000), rows[2].TS)
	_, hasTemp := rows[2].Values["temp"]
	assert.False(t, hasTemp)
}

func TestUnifyRowsLastWriteWinsPerKey(t *testing.T) {
	// overlapping chunk boundaries deliver the same timestamp twice
	series := entity.KeyedSeries{
		"temp": {{TS: 1000, Value: fp(1)}, {TS: 1000, Value: fp(2)}},
	}

	rows := UnifyRows("sensor1", series, []string{"temp"})

	require.Len(t, rows, 1)
	assert.Equal(t, 2.0, *rows[0].Values["temp"])
}

func TestUnifyRowsDropsTimestamplessPoints(t *testing.T) {
	series := entity.KeyedSeries{
		"temp": {{TS: -1, Value: fp(1)}, {TS: 1000, Value: fp(2)}},
	}

	rows := UnifyRows("sensor1", series, []string{"temp"})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1000), rows[0].TS)
}

func TestBuildPivotTableSnapsMidpointTimestamps(t *testing.T) {
	const hour = int64(3600000)
	// the server labels hourly buckets with their midpoint
	rows := []entity.UnifiedRow{
		{TS: hour + hour/2, Entity: "a", Values: map[string]*float64{"k": fp(1)}},
		{TS: 2*hour + hour/2, Entity: "a", Values: map[string]*float64{"k": fp(2)}},
	}

	pivot := BuildPivotTable(rows, []string{"k"}, TableOptions{
		Location:   time.UTC,
		IntervalMs: hour,
		ColumnMap:  entity.NewColumnMap(),
	})

	require.Len(t, pivot.Rows, 2)
	assert.Equal(t, time.UnixMilli(hour).UTC(), pivot.Rows[0].Timestamp)
	assert.Equal(t, time.UnixMilli(2*hour).UTC(), pivot.Rows[1].Timestamp)
}

func TestBuildPivotTableFirstWinsOnSnapCollision(t *testing.T) {
	const hour = int64(3600000)
	rows := []entity.UnifiedRow{
		{TS: hour + 1000, Entity: "a", Values: map[string]*float64{"k": fp(1)}},
		{TS: hour + 2000, Entity: "a", Values: map[string]*float64{"k": fp(99)}},
	}

	pivot := BuildPivotTable(rows, []string{"k"}, TableOptions{
		Location:   time.UTC,
		IntervalMs: hour,
		ColumnMap:  entity.NewColumnMap(),
	})

	require.Len(t, pivot.Rows, 1)
	assert.Equal(t, 1.0, *pivot.Rows[0].Cells["a k"])
}

func TestBuildPivotTableColumnOrderDeterministic(t *testing.T) {
	cm := entity.NewColumnMap()
	cm.Set("b2 k1", []string{"Building 2", "Key 1"})

	rows := []entity.UnifiedRow{
		// deliberately shuffled arrival order
		{TS: 1000, Entity: "b3", Values: map[string]*float64{"k2": fp(1)}},
		{TS: 1000, Entity: "b1", Values: map[string]*float64{"k1": fp(2), "k2": fp(3)}},
		{TS: 2000, Entity: "b2", Values: map[string]*float64{"k1": fp(4)}},
	}

	pivot := BuildPivotTable(rows, []string{"k1", "k2"}, TableOptions{
		Location:  time.UTC,
		ColumnMap: cm,
	})

	names := []string{}
	for _, col := range pivot.Columns {
		names = append(names, col.Name)
	}
	// mapped column first, the rest sorted by entity then key
	assert.Equal(t, []string{"b2 k1", "b1 k1", "b1 k2", "b3 k2"}, names)
}

func TestBuildTablesDescendingOrder(t *testing.T) {
	rows := []entity.UnifiedRow{
		{TS: 1000, Entity: "a", Values: map[string]*float64{"k": fp(1)}},
		{TS: 2000, Entity: "a", Values: map[string]*float64{"k": fp(2)}},
		{TS: 3000, Entity: "a", Values: map[string]*float64{"k": fp(3)}},
	}
	opts := TableOptions{
		Location:   time.UTC,
		ColumnMap:  entity.NewColumnMap(),
		Descending: true,
	}

	pivot := BuildPivotTable(rows, []string{"k"}, opts)
	require.Len(t, pivot.Rows, 3)
	assert.True(t, pivot.Rows[0].Timestamp.After(pivot.Rows[2].Timestamp))

	raw := BuildRawTable(rows, []string{"k"}, opts)
	require.Len(t, raw.Rows, 3)
	assert.True(t, raw.Rows[0].Timestamp.After(raw.Rows[2].Timestamp))
}

func TestBuildRawTableKeepsOriginalTimestamps(t *testing.T) {
	const hour = int64(3600000)
	rows := []entity.UnifiedRow{
		{TS: hour + hour/2, Entity: "a", Values: map[string]*float64{"k": fp(1)}},
	}

	raw := BuildRawTable(rows, []string{"k"}, TableOptions{
		Location:   time.UTC,
		IntervalMs: hour,
		ColumnMap:  entity.NewColumnMap(),
	})

	require.Len(t, raw.Rows, 1)
	assert.Equal(t, time.UnixMilli(hour+hour/2).UTC(), raw.Rows[0].Timestamp)
	assert.Equal(t, []string{"k"}, raw.Keys)
}

func TestBuildRawTableDropsUnobservedKeys(t *testing.T) {
	rows := []entity.UnifiedRow{
		{TS: 1000, Entity: "a", Values: map[string]*float64{"k1": fp(1)}},
	}

	raw := BuildRawTable(rows, []string{"k1", "k2"}, TableOptions{
		Location:  time.UTC,
		ColumnMap: entity.NewColumnMap(),
	})

	assert.Equal(t, []string{"k1"}, raw.Keys)
}
