package resample

import (
	"testing"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makePivot builds a synthetic pivot table with one column "asset1 key1".
// Values increment by 10 each interval, simulating a cumulative meter.
func makePivot(t *testing.T, start string, days int, intervalHours int) *entity.PivotTable {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", start)
	require.NoError(t, err)

	end := ts.AddDate(0, 0, days)
	val := 1000.0

	rows := []entity.PivotRow{}
	for ts.Before(end) {
		v := val
		rows = append(rows, entity.PivotRow{
			Timestamp: ts,
			Cells:     map[string]*float64{"asset1 key1": &v},
		})
		ts = ts.Add(time.Duration(intervalHours) * time.Hour)
		val += 10.0
	}

	return &entity.PivotTable{
		Columns: []entity.PivotColumn{{Name: "asset1 key1", Entity: "asset1", Key: "key1"}},
		Rows:    rows,
	}
}

func cell(t *testing.T, row entity.AggregateRow, column string) float64 {
	t.Helper()
	v, ok := row.Cells[column]
	require.True(t, ok, "missing cell %s", column)
	require.NotNil(t, v, "nil cell %s", column)
	return *v
}

func TestResampleDailyAllAggFunctions(t *testing.T) {
	pivot := makePivot(t, "2026-01-01 00:00:00", 35, 6)

	// four samples per day starting at 1000+40k, stepping 10
	cases := []struct {
		agg  string
		day0 float64
		day1 float64
	}{
		{entity.AggLast, 1030, 1070},
		{entity.AggFirst, 1000, 1040},
		{entity.AggMean, 1015, 1055},
		{entity.AggSum, 4060, 4220},
		{entity.AggMin, 1000, 1040},
		{entity.AggMax, 1030, 1070},
	}

	for _, tc := range cases {
		t.Run(tc.agg, func(t *testing.T) {
			table := Resample(pivot, entity.GranularityDaily, entity.AggMap{"default": tc.agg}, time.Sunday)
			require.NotNil(t, table)

			// 35 days of data, last day incomplete (ends 18:00)
			require.Len(t, table.Rows, 34)
			assert.Equal(t, "2026-01-01", table.Rows[0].Date.Format("2006-01-02"))
			assert.InDelta(t, tc.day0, cell(t, table.Rows[0], "asset1 key1"), 0.01)
			assert.InDelta(t, tc.day1, cell(t, table.Rows[1], "asset1 key1"), 0.01)
		})
	}
}

func TestResampleWeeklySundayBoundaries(t *testing.T) {
	pivot := makePivot(t, "2026-01-01 00:00:00", 35, 6)

	table := Resample(pivot, entity.GranularityWeekly, entity.AggMap{"default": entity.AggLast}, time.Sunday)
	require.NotNil(t, table)

	// data starts Thursday Jan 1: the Dec 28 week is partial and dropped,
	// the Feb 1 week never reaches its seventh day
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "2026-01-04", table.Rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-01-25", table.Rows[3].Date.Format("2006-01-02"))

	// last sample of the Jan 4 week is Jan 10 18:00, the 40th sample
	assert.InDelta(t, 1390, cell(t, table.Rows[0], "asset1 key1"), 0.01)
}

func TestResampleWeeklyMondayStart(t *testing.T) {
	pivot := makePivot(t, "2026-01-01 00:00:00", 35, 6)

	table := Resample(pivot, entity.GranularityWeekly, entity.AggMap{"default": entity.AggLast}, time.Monday)
	require.NotNil(t, table)

	assert.Equal(t, "2026-01-05", table.Rows[0].Date.Format("2006-01-02"))
}

func TestResampleMonthlyLast(t *testing.T) {
	pivot := makePivot(t, "2026-01-01 00:00:00", 65, 6)

	table := Resample(pivot, entity.GranularityMonthly, entity.AggMap{"default": entity.AggLast}, time.Sunday)
	require.NotNil(t, table)

	// January and February complete, March barely started
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2026-01-01", table.Rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-02-01", table.Rows[1].Date.Format("2006-01-02"))

	// Jan 31 18:00 is the 124th sample, Feb 28 18:00 the 236th
	assert.InDelta(t, 2230, cell(t, table.Rows[0], "asset1 key1"), 0.01)
	assert.InDelta(t, 3350, cell(t, table.Rows[1], "asset1 key1"), 0.01)
}

func TestResamplePartialFirstDayExcluded(t *testing.T) {
	// data starts mid-day, so Jan 1 must not appear even though its
	// completion cutoff is reached
	pivot := makePivot(t, "2026-01-01 12:00:00", 5, 6)

	table := Resample(pivot, entity.GranularityDaily, entity.AggMap{"default": entity.AggLast}, time.Sunday)
	require.NotNil(t, table)
	assert.Equal(t, "2026-01-02", table.Rows[0].Date.Format("2006-01-02"))
}

func TestResampleShortRangeYieldsNothing(t *testing.T) {
	// a few hours of data never cover a full day
	pivot := makePivot(t, "2026-01-01 00:00:00", 1, 2)
	pivot.Rows = pivot.Rows[:5]

	assert.Nil(t, Resample(pivot, entity.GranularityDaily, entity.AggMap{}, time.Sunday))

	all := All(pivot, entity.AggMap{}, time.Sunday)
	assert.Empty(t, all)
}

func TestResampleGapPeriodsEmitRows(t *testing.T) {
	v1, v2 := 5.0, 9.0
	pivot := &entity.PivotTable{
		Columns: []entity.PivotColumn{{Name: "asset1 key1", Entity: "asset1", Key: "key1"}},
		Rows: []entity.PivotRow{
			{Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Cells: map[string]*float64{"asset1 key1": &v1}},
			{Timestamp: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), Cells: map[string]*float64{"asset1 key1": &v2}},
		},
	}

	sums := Resample(pivot, entity.GranularityDaily, entity.AggMap{"default": entity.AggSum}, time.Sunday)
	require.NotNil(t, sums)
	require.Len(t, sums.Rows, 3)
	assert.Equal(t, 5.0, cell(t, sums.Rows[0], "asset1 key1"))
	assert.Equal(t, 0.0, cell(t, sums.Rows[1], "asset1 key1"))
	assert.Equal(t, 0.0, cell(t, sums.Rows[2], "asset1 key1"))

	means := Resample(pivot, entity.GranularityDaily, entity.AggMap{"default": entity.AggMean}, time.Sunday)
	require.NotNil(t, means)
	require.Len(t, means.Rows, 3)
	assert.Nil(t, means.Rows[1].Cells["asset1 key1"])
	assert.Nil(t, means.Rows[2].Cells["asset1 key1"])
}

func TestResampleYearlyNeedsFinalDay(t *testing.T) {
	short := makePivot(t, "2025-01-01 00:00:00", 364, 24)
	assert.Nil(t, Resample(short, entity.GranularityYearly, entity.AggMap{"default": entity.AggLast}, time.Sunday),
		"a year without its last day is incomplete")

	full := makePivot(t, "2025-01-01 00:00:00", 365, 24)
	table := Resample(full, entity.GranularityYearly, entity.AggMap{"default": entity.AggLast}, time.Sunday)
	require.NotNil(t, table)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2025-01-01", table.Rows[0].Date.Format("2006-01-02"))
}

func TestAggFuncLookupOrder(t *testing.T) {
	aggMap := entity.AggMap{
		"asset1 key1": entity.AggSum,
		"key2":        entity.AggMax,
		"default":     entity.AggMin,
	}

	assert.Equal(t, entity.AggSum, aggFuncFor(entity.PivotColumn{Name: "asset1 key1", Entity: "asset1", Key: "key1"}, aggMap))
	assert.Equal(t, entity.AggMax, aggFuncFor(entity.PivotColumn{Name: "asset2 key2", Entity: "asset2", Key: "key2"}, aggMap))
	assert.Equal(t, entity.AggMin, aggFuncFor(entity.PivotColumn{Name: "asset3 key3", Entity: "asset3", Key: "key3"}, aggMap))
	assert.Equal(t, entity.AggMean, aggFuncFor(entity.PivotColumn{Name: "x"}, entity.AggMap{}))
	assert.Equal(t, entity.AggMean, aggFuncFor(entity.PivotColumn{Name: "x"}, entity.AggMap{"default": "median"}),
		"unknown agg names fall back to mean")
}

func TestPeriodStartAndCutoffs(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2026, 1, 15, 13, 45, 0, 0, loc) // a Thursday

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, loc), PeriodStart(ts, entity.GranularityDaily, time.Sunday))
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, loc), PeriodStart(ts, entity.GranularityWeekly, time.Sunday))
	assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, loc), PeriodStart(ts, entity.GranularityWeekly, time.Monday))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, loc), PeriodStart(ts, entity.GranularityMonthly, time.Sunday))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, loc), PeriodStart(ts, entity.GranularityYearly, time.Sunday))

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 1, 15, 23, 59, 59, 0, loc), completionCutoff(day, entity.GranularityDaily))

	week := time.Date(2026, 1, 11, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 1, 17, 0, 0, 0, 0, loc), completionCutoff(week, entity.GranularityWeekly))

	month := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 0, loc), completionCutoff(month, entity.GranularityMonthly))

	year := time.Date(2024, 1, 1, 0, 0, 0, 0, loc) // leap year
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, loc), completionCutoff(year, entity.GranularityYearly))
}
