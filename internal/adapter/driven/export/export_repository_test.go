package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/config"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func testTables(t *testing.T) *entity.TableSet {
	t.Helper()

	report, err := config.NewConfigRepository().ResolveReportConfig(nil)
	require.NoError(t, err)
	report.FilenameTimestamp = false

	req := &entity.ExportRequest{
		TimezoneName: "UTC",
		Location:     time.UTC,
		StartTs:      0,
		EndTs:        86_400_000,
		Entities:     []entity.EntityRef{{Type: "DEVICE", ID: "d1", Name: "sensor"}},
		Keys:         []string{"temp"},
		Agg:          entity.AggNone,
		Limit:        100,
		Order:        entity.OrderAsc,
		Report:       report,
	}

	col := entity.PivotColumn{Name: "sensor temp", Entity: "sensor", Key: "temp"}
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	return &entity.TableSet{
		Request: req,
		Raw: entity.RawTable{
			Keys: []string{"temp"},
			Rows: []entity.RawRow{
				{Timestamp: ts, Entity: "sensor", Values: map[string]*float64{"temp": fp(21.5)}},
				{Timestamp: ts.Add(time.Hour), Entity: "sensor", Values: map[string]*float64{"temp": nil}},
			},
		},
		Pivot: entity.PivotTable{
			Columns: []entity.PivotColumn{col},
			Rows: []entity.PivotRow{
				{Timestamp: ts, Cells: map[string]*float64{"sensor temp": fp(21.5)}},
			},
		},
		Aggregates: map[entity.Granularity]entity.AggregateTable{
			entity.GranularityDaily: {
				Granularity: entity.GranularityDaily,
				Columns:     []entity.PivotColumn{col},
				Rows: []entity.AggregateRow{
					{Date: ts, Cells: map[string]*float64{"sensor temp": fp(21.5)}},
				},
			},
		},
	}
}

func TestExportToCSVWritesOneFilePerSheet(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	paths, err := repo.ExportToCSV(testTables(t), "report", dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	names := []string{}
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"report_pivot.csv", "report_daily.csv", "report_raw_data.csv"}, names)

	f, err := os.Open(paths[2])
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Timestamp", "Entity", "temp"}, records[0])
	assert.Equal(t, []string{"2026-01-01 00:00:00", "sensor", "21.5"}, records[1])
	assert.Equal(t, "", records[2][2], "null values become empty cells")
}

func TestExportToJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	path, err := repo.ExportToJSON(testTables(t), "report", dir)
	require.NoError(t, err)
	assert.Equal(t, "report.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "raw")
	assert.Contains(t, decoded, "pivot")
	assert.Contains(t, decoded, "aggregates")
}

func TestGenerateFilenameHonorsTimestampToggle(t *testing.T) {
	dir := t.TempDir()

	plain, err := generateFilename("report", dir, "xlsx", false)
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", filepath.Base(plain))

	stamped, err := generateFilename("report", dir, "xlsx", true)
	require.NoError(t, err)
	assert.Regexp(t, `^report_\d{8}_\d{6}\.xlsx$`, filepath.Base(stamped))
}

func TestExportToXLSXWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	path, err := repo.ExportToXLSX(testTables(t), "report", dir)
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", filepath.Base(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
