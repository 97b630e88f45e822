package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/lhtools/tb-pivot-export-go/internal/domain/repository"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// ExportToCSV writes one CSV file per sheet of the table set and returns the
// paths written. Sheets without rows are skipped the same way empty
// granularities are skipped in the workbook.
func (r *ExportRepositoryImpl) ExportToCSV(tables *entity.TableSet, baseName, outputDir string) ([]string, error) {
	report := tables.Request.Report
	paths := []string{}

	writeSheet := func(suffix string, header []string, rows [][]string) error {
		outputFilename, err := generateFilename(baseName+"_"+suffix, outputDir, "csv", report.FilenameTimestamp)
		if err != nil {
			return err
		}
		file, err := os.Create(outputFilename)
		if err != nil {
			return fmt.Errorf("error creating CSV file: %w", err)
		}
		defer file.Close()

		writer := csv.NewWriter(file)
		defer writer.Flush()

		if err := writer.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		abs, err := filepath.Abs(outputFilename)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
		return nil
	}

	if len(tables.Pivot.Rows) > 0 {
		header := []string{"Timestamp"}
		for _, col := range tables.Pivot.Columns {
			header = append(header, displayName(col, report.ColumnMap))
		}
		rows := make([][]string, 0, len(tables.Pivot.Rows))
		for _, pivot := range tables.Pivot.Rows {
			record := []string{pivot.Timestamp.Format("2006-01-02 15:04:05")}
			for _, col := range tables.Pivot.Columns {
				record = append(record, formatCell(pivot.Cells[col.Name]))
			}
			rows = append(rows, record)
		}
		if err := writeSheet(sheetSuffix(report.Formatting.PivotSheetName()), header, rows); err != nil {
			return nil, err
		}
	}

	for _, g := range entity.Granularities {
		agg, ok := tables.Aggregates[g]
		if !ok {
			continue
		}
		header := []string{"Date"}
		for _, col := range agg.Columns {
			header = append(header, displayName(col, report.ColumnMap))
		}
		rows := make([][]string, 0, len(agg.Rows))
		for _, row := range agg.Rows {
			record := []string{row.Date.Format("2006-01-02")}
			for _, col := range agg.Columns {
				record = append(record, formatCell(row.Cells[col.Name]))
			}
			rows = append(rows, record)
		}
		if err := writeSheet(sheetSuffix(report.Formatting.SheetName(g)), header, rows); err != nil {
			return nil, err
		}
	}

	if len(tables.Raw.Rows) > 0 {
		header := append([]string{"Timestamp", "Entity"}, tables.Raw.Keys...)
		rows := make([][]string, 0, len(tables.Raw.Rows))
		for _, raw := range tables.Raw.Rows {
			record := []string{raw.Timestamp.Format("2006-01-02 15:04:05"), raw.Entity}
			for _, key := range tables.Raw.Keys {
				record = append(record, formatCell(raw.Values[key]))
			}
			rows = append(rows, record)
		}
		if err := writeSheet(sheetSuffix(report.Formatting.RawSheetName()), header, rows); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

// ExportToJSON writes the whole table set as one indented JSON document.
func (r *ExportRepositoryImpl) ExportToJSON(tables *entity.TableSet, baseName, outputDir string) (string, error) {
	outputFilename, err := generateFilename(baseName, outputDir, "json", tables.Request.Report.FilenameTimestamp)
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tables); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToPDF writes a one-page run summary: the requested range, the
// entities and keys, and the size of every produced table.
func (r *ExportRepositoryImpl) ExportToPDF(tables *entity.TableSet, baseName, outputDir string) (string, error) {
	outputFilename, err := generateFilename(baseName, outputDir, "pdf", tables.Request.Report.FilenameTimestamp)
	if err != nil {
		return "", err
	}

	req := tables.Request

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	drawSection := func(title string, content string) {
		if content == "" {
			return
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, title)
		pdf.Ln(7)

		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.MultiCell(190, 5, tr(content), "", "L", false)
		pdf.Ln(8)
	}

	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, "  Telemetry Export Summary", "", 1, "L", true, 0, "")
	pdf.Ln(8)

	start := time.UnixMilli(req.StartTs).In(req.Location)
	end := time.UnixMilli(req.EndTs).In(req.Location)
	drawSection("Time Range", fmt.Sprintf("%s to %s (%s)",
		start.Format("2006-01-02 15:04:05"), end.Format("2006-01-02 15:04:05"), req.TimezoneName))

	entityNames := make([]string, 0, len(req.Entities))
	for _, ref := range req.Entities {
		entityNames = append(entityNames, fmt.Sprintf("%s (%s %s)", ref.Name, ref.Type, ref.ID))
	}
	drawSection("Entities", strings.Join(entityNames, "\n"))
	drawSection("Keys", strings.Join(req.Keys, ", "))

	var sizes strings.Builder
	fmt.Fprintf(&sizes, "%s: %d rows\n", req.Report.Formatting.RawSheetName(), len(tables.Raw.Rows))
	fmt.Fprintf(&sizes, "%s: %d rows x %d columns\n", req.Report.Formatting.PivotSheetName(), len(tables.Pivot.Rows), len(tables.Pivot.Columns))
	for _, g := range entity.Granularities {
		if agg, ok := tables.Aggregates[g]; ok {
			fmt.Fprintf(&sizes, "%s: %d periods\n", req.Report.Formatting.SheetName(g), len(agg.Rows))
		}
	}
	drawSection("Tables", strings.TrimSpace(sizes.String()))

	for _, g := range entity.Granularities {
		agg, ok := tables.Aggregates[g]
		if !ok {
			continue
		}
		var head strings.Builder
		for i, row := range agg.Rows {
			if i == 3 {
				fmt.Fprintf(&head, "... (%d more)\n", len(agg.Rows)-i)
				break
			}
			fmt.Fprintf(&head, "%s", row.Date.Format("2006-01-02"))
			for _, col := range agg.Columns {
				fmt.Fprintf(&head, "  %s: %s", displayName(col, req.Report.ColumnMap), formatCell(row.Cells[col.Name]))
			}
			head.WriteString("\n")
		}
		drawSection(req.Report.Formatting.SheetName(g), strings.TrimSpace(head.String()))
	}

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}
	return filepath.Abs(outputFilename)
}

func generateFilename(base, dir, ext string, withTimestamp bool) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}

	filename := base + "." + ext
	if withTimestamp {
		timestamp := time.Now().Format("20060102_150405")
		filename = fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	}
	return filepath.Join(dir, filename), nil
}

// displayName resolves a column's header text: the column_map labels joined
// when mapped, otherwise the raw "<entity> <key>" name.
func displayName(col entity.PivotColumn, columnMap entity.ColumnMap) string {
	if labels, ok := columnMap.Labels(col.Name); ok && len(labels) > 0 {
		parts := []string{}
		for _, l := range labels {
			if l != "" {
				parts = append(parts, l)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return col.Name
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

// sheetSuffix turns a sheet name into a filename-safe lowercase suffix.
func sheetSuffix(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
