package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/application/resample"
	"github.com/lhtools/tb-pivot-export-go/internal/application/transform"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/repository"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
)

// Hard caps applied to every payload before fetching. Oversized payloads are
// truncated with a warning instead of rejected, so a misconfigured widget
// still produces a report.
const (
	MaxEntities = 500
	MaxKeys     = 100
	MaxPoints   = 10000
)

// DefaultTimezone applies when the payload does not name one.
const DefaultTimezone = "Asia/Bangkok"

// ExportUseCase drives one export run: payload validation, fetching,
// table building and writing the report files.
type ExportUseCase struct {
	telemetryRepo repository.TelemetryRepository
	exportRepo    repository.ExportRepository
	configRepo    repository.ConfigRepository
	console       types.ConsoleInterface
}

// NewExportUseCase creates a new export use case.
func NewExportUseCase(
	telemetryRepo repository.TelemetryRepository,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *ExportUseCase {
	return &ExportUseCase{
		telemetryRepo: telemetryRepo,
		exportRepo:    exportRepo,
		configRepo:    configRepo,
		console:       console,
	}
}

// BuildRequest validates a widget payload and turns it into the immutable
// request the pipeline runs on. orderOverride, when non-empty, wins over the
// payload's query order.
func (uc *ExportUseCase) BuildRequest(payload *types.WidgetPayload, orderOverride string) (*entity.ExportRequest, error) {
	if payload.TimeEpoch.StartTsMs == nil || payload.TimeEpoch.EndTsMs == nil {
		return nil, types.ErrMissingTimeRange
	}
	if len(payload.Entities) == 0 {
		return nil, types.ErrNoEntities
	}
	if len(payload.Keys) == 0 {
		return nil, types.ErrNoKeys
	}

	tzName := payload.Timezone
	if tzName == "" {
		tzName = DefaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrBadTimezone, tzName)
	}

	refs := make([]entity.EntityRef, 0, len(payload.Entities))
	for _, e := range payload.Entities {
		if e.ID == "" {
			uc.console.LogWarning("Skipping entity with no id (name %q)", e.Name)
			continue
		}
		ref := entity.EntityRef{
			Type: strings.ToUpper(strings.TrimSpace(e.Type)),
			ID:   e.ID,
			Name: e.Name,
		}
		if ref.Type == "" {
			ref.Type = "ASSET"
		}
		if ref.Name == "" {
			ref.Name = ref.ID
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil, types.ErrNoEntities
	}
	if len(refs) > MaxEntities {
		uc.console.LogWarning("Payload has %d entities, truncating to %d", len(refs), MaxEntities)
		refs = refs[:MaxEntities]
	}

	keys := make([]string, 0, len(payload.Keys))
	for _, k := range payload.Keys {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, types.ErrNoKeys
	}
	if len(keys) > MaxKeys {
		uc.console.LogWarning("Payload has %d keys, truncating to %d", len(keys), MaxKeys)
		keys = keys[:MaxKeys]
	}

	agg := strings.ToUpper(strings.TrimSpace(payload.Query.Agg))
	if agg == "" {
		agg = entity.AggNone
	}
	var intervalMs int64
	if payload.Query.Interval != nil && *payload.Query.Interval > 0 {
		intervalMs = *payload.Query.Interval
	}

	limit := MaxPoints
	if payload.Query.Limit != nil && *payload.Query.Limit > 0 && *payload.Query.Limit < MaxPoints {
		limit = *payload.Query.Limit
	}

	order := strings.ToUpper(strings.TrimSpace(orderOverride))
	if order == "" {
		order = strings.ToUpper(strings.TrimSpace(payload.Query.Order))
	}
	if order != entity.OrderDesc {
		order = entity.OrderAsc
	}

	report, err := uc.configRepo.ResolveReportConfig(payload.ReportConfig)
	if err != nil {
		return nil, err
	}

	return &entity.ExportRequest{
		TimezoneName: tzName,
		Location:     loc,
		StartTs:      *payload.TimeEpoch.StartTsMs,
		EndTs:        *payload.TimeEpoch.EndTsMs,
		Entities:     refs,
		Keys:         keys,
		Agg:          agg,
		IntervalMs:   intervalMs,
		Limit:        limit,
		Order:        order,
		Report:       report,
	}, nil
}

// BuildTables fetches every entity sequentially and assembles the raw table,
// the pivot table and the aggregate tables.
func (uc *ExportUseCase) BuildTables(ctx context.Context, req *entity.ExportRequest) (*entity.TableSet, error) {
	return uc.buildTables(ctx, req, nil)
}

// BuildTablesWithProgress is BuildTables advancing a progress bar once per
// entity fetched.
func (uc *ExportUseCase) BuildTablesWithProgress(ctx context.Context, req *entity.ExportRequest, progress types.ProgressHandle) (*entity.TableSet, error) {
	return uc.buildTables(ctx, req, progress)
}

func (uc *ExportUseCase) buildTables(ctx context.Context, req *entity.ExportRequest, progress types.ProgressHandle) (*entity.TableSet, error) {
	unified := []entity.UnifiedRow{}

	for _, ref := range req.Entities {
		series, err := uc.telemetryRepo.FetchTimeseries(ctx, ref, req.Keys, req.StartTs, req.EndTs, req.Limit, req.Agg, req.IntervalMs)
		if err != nil {
			return nil, err
		}
		unified = append(unified, transform.UnifyRows(entityLabel(ref), series, req.Keys)...)
		if progress != nil {
			progress.Increment()
		}
	}

	opts := transform.TableOptions{
		Location:   req.Location,
		ColumnMap:  req.Report.ColumnMap,
		Descending: req.Descending(),
	}
	if req.Aggregated() {
		opts.IntervalMs = req.IntervalMs
	}

	raw := transform.BuildRawTable(unified, req.Keys, opts)
	pivot := transform.BuildPivotTable(unified, req.Keys, opts)
	aggregates := resample.All(&pivot, req.Report.AggMap, req.Report.Sheets.WeekStartDay())

	return &entity.TableSet{
		Request:    req,
		Raw:        raw,
		Pivot:      pivot,
		Aggregates: aggregates,
	}, nil
}

// RunExport is the CLI entry point: builds the request, fetches with
// progress, previews the result on the terminal and writes every requested
// report format.
func (uc *ExportUseCase) RunExport(ctx context.Context, args *types.CLIArgs, payload *types.WidgetPayload) error {
	req, err := uc.BuildRequest(payload, args.Order)
	if err != nil {
		return err
	}

	status := uc.console.Status("Preparing export...")
	status.Update(fmt.Sprintf("Fetching telemetry for %d entities, %d keys...", len(req.Entities), len(req.Keys)))

	progress := uc.console.ProgressWithTotal(len(req.Entities))
	tables, err := uc.BuildTablesWithProgress(ctx, req, progress)
	progress.Stop()
	if err != nil {
		status.Stop()
		uc.console.LogError("Fetching telemetry failed: %v", err)
		return err
	}

	status.Update("Building tables...")
	status.Stop()

	uc.previewTables(tables)

	_, err = uc.WriteReports(tables, args)
	return err
}

// WriteReports writes every requested format and returns the paths produced.
// A failing format is logged and does not stop the remaining ones; the first
// failure is returned after all formats ran.
func (uc *ExportUseCase) WriteReports(tables *entity.TableSet, args *types.CLIArgs) ([]string, error) {
	baseName := baseFilename(tables.Request.Report.Filename, args.ReportName)
	formats := args.ReportType
	if len(formats) == 0 {
		formats = []string{"xlsx"}
	}

	written := []string{}
	var firstErr error
	record := func(format string, paths []string, err error) {
		if err != nil {
			uc.console.LogError("%s export failed: %v", format, err)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		for _, path := range paths {
			uc.console.LogSuccess("%s report written to %s", format, path)
		}
		written = append(written, paths...)
	}

	for _, format := range formats {
		switch strings.ToLower(format) {
		case "xlsx":
			path, err := uc.exportRepo.ExportToXLSX(tables, baseName, args.Dir)
			record("XLSX", []string{path}, err)
		case "csv":
			paths, err := uc.exportRepo.ExportToCSV(tables, baseName, args.Dir)
			record("CSV", paths, err)
		case "json":
			path, err := uc.exportRepo.ExportToJSON(tables, baseName, args.Dir)
			record("JSON", []string{path}, err)
		case "pdf":
			path, err := uc.exportRepo.ExportToPDF(tables, baseName, args.Dir)
			record("PDF", []string{path}, err)
		default:
			uc.console.LogWarning("Unknown report type '%s', skipping", format)
		}
	}

	return written, firstErr
}

// previewTables prints the run summary and, when a daily aggregate exists, a
// bar preview of its first column.
func (uc *ExportUseCase) previewTables(tables *entity.TableSet) {
	table := uc.console.CreateTable()
	table.AddColumn("Table")
	table.AddColumn("Rows")
	table.AddColumn("Columns")

	report := tables.Request.Report
	table.AddRow(report.Formatting.RawSheetName(), len(tables.Raw.Rows), len(tables.Raw.Keys)+2)
	table.AddRow(report.Formatting.PivotSheetName(), len(tables.Pivot.Rows), len(tables.Pivot.Columns)+1)
	for _, g := range entity.Granularities {
		if agg, ok := tables.Aggregates[g]; ok {
			table.AddRow(report.Formatting.SheetName(g), len(agg.Rows), len(agg.Columns)+1)
		}
	}
	uc.console.Println(table.Render())

	daily, ok := tables.Aggregates[entity.GranularityDaily]
	if !ok || len(daily.Columns) == 0 {
		return
	}
	col := daily.Columns[0]
	values := []types.PeriodValue{}
	for _, row := range daily.Rows {
		if v := row.Cells[col.Name]; v != nil {
			values = append(values, types.PeriodValue{Period: row.Date.Format("2006-01-02"), Value: *v})
		}
	}
	if len(values) > 0 {
		uc.console.DisplayPeriodBars(fmt.Sprintf("Daily %s", col.Name), values)
	}
}

// entityLabel names an entity in tables: the display name when present,
// falling back to the raw ID.
func entityLabel(ref entity.EntityRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}

// baseFilename strips the configured filename to its stem; a CLI report name
// overrides the config.
func baseFilename(configured, override string) string {
	name := configured
	if override != "" {
		name = override
	}
	if name == "" {
		name = "tb_pivot_export"
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
