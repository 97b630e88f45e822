package export

import (
	"fmt"
	"path/filepath"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

// sheetStyles holds the style IDs built once per workbook. A zero ID means
// the style is disabled and cells keep the workbook default.
type sheetStyles struct {
	headers  []int // one per header level
	number   int
	datetime int
	date     int
	text     int
}

// ExportToXLSX writes the full workbook: the raw sheet, the pivot sheet and
// one sheet per granularity that produced at least one period. Header rows on
// the pivot sheet follow the column_map label rows, merged where adjacent
// labels repeat.
func (r *ExportRepositoryImpl) ExportToXLSX(tables *entity.TableSet, baseName, outputDir string) (string, error) {
	report := tables.Request.Report
	formatting := report.Formatting

	outputFilename, err := generateFilename(baseName, outputDir, "xlsx", report.FilenameTimestamp)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := buildStyles(f, formatting)
	if err != nil {
		return "", fmt.Errorf("building workbook styles: %w", err)
	}

	// pivot first, then the aggregates, raw data last
	if err := writePivotSheet(f, tables, styles); err != nil {
		return "", err
	}
	for _, g := range entity.Granularities {
		agg, ok := tables.Aggregates[g]
		if !ok {
			continue
		}
		if err := writeAggregateSheet(f, tables, agg, styles); err != nil {
			return "", err
		}
	}
	if err := writeRawSheet(f, tables, styles); err != nil {
		return "", err
	}

	// the default sheet is replaced by the ones written above
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}
	if idx, err := f.GetSheetIndex(formatting.PivotSheetName()); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(outputFilename); err != nil {
		return "", fmt.Errorf("error writing XLSX file: %w", err)
	}
	return filepath.Abs(outputFilename)
}

func buildStyles(f *excelize.File, formatting entity.FormattingConfig) (sheetStyles, error) {
	s := sheetStyles{}
	if len(formatting.HeaderFillColors) == 0 && formatting.NumberFormat == "" {
		// formatting section disabled, plain cells everywhere
		return s, nil
	}

	border := []excelize.Border{}
	if formatting.BorderStyle != "" {
		for _, side := range []string{"left", "right", "top", "bottom"} {
			border = append(border, excelize.Border{Type: side, Color: "BFBFBF", Style: 1})
		}
	}

	alignment := formatting.HeaderAlignment
	if alignment == "" {
		alignment = "center"
	}
	fontSize := formatting.HeaderFontSize
	if fontSize == 0 {
		fontSize = 11
	}

	for _, color := range formatting.HeaderFillColors {
		id, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: formatting.HeaderFontBold, Size: fontSize},
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{
				Horizontal: alignment,
				Vertical:   "center",
				WrapText:   true,
			},
			Border: border,
		})
		if err != nil {
			return s, err
		}
		s.headers = append(s.headers, id)
	}

	if formatting.NumberFormat != "" {
		numFmt := formatting.NumberFormat
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt, Border: border})
		if err != nil {
			return s, err
		}
		s.number = id
	}
	if formatting.DatetimeFormat != "" {
		dtFmt := formatting.DatetimeFormat
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dtFmt, Border: border})
		if err != nil {
			return s, err
		}
		s.datetime = id
	}
	if formatting.DateFormat != "" {
		dFmt := formatting.DateFormat
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dFmt, Border: border})
		if err != nil {
			return s, err
		}
		s.date = id
	}

	id, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return s, err
	}
	s.text = id

	return s, nil
}

// headerStyle picks the style for a header level; deeper levels reuse the
// lightest configured color.
func (s sheetStyles) headerStyle(level int) int {
	if len(s.headers) == 0 {
		return 0
	}
	if level >= len(s.headers) {
		level = len(s.headers) - 1
	}
	return s.headers[level]
}

func writeRawSheet(f *excelize.File, tables *entity.TableSet, styles sheetStyles) error {
	formatting := tables.Request.Report.Formatting
	sheet := formatting.RawSheetName()
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := append([]string{"Timestamp", "Entity"}, tables.Raw.Keys...)
	widths := make([]int, len(header))
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		setStyle(f, sheet, cell, styles.headerStyle(0))
		widths[i] = len(h)
	}

	for rowIdx, raw := range tables.Raw.Rows {
		row := rowIdx + 2
		tsCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, tsCell, raw.Timestamp); err != nil {
			return err
		}
		setStyle(f, sheet, tsCell, styles.datetime)
		widths[0] = maxInt(widths[0], 19)

		entCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, entCell, raw.Entity); err != nil {
			return err
		}
		setStyle(f, sheet, entCell, styles.text)
		widths[1] = maxInt(widths[1], len(raw.Entity))

		for i, key := range tables.Raw.Keys {
			v, ok := raw.Values[key]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+3, row)
			if err := f.SetCellValue(sheet, cell, *v); err != nil {
				return err
			}
			setStyle(f, sheet, cell, styles.number)
		}
	}

	applyColumnWidths(f, sheet, widths, formatting)
	return freeze(f, sheet, 1, formatting.FreezeRaw)
}

func writePivotSheet(f *excelize.File, tables *entity.TableSet, styles sheetStyles) error {
	report := tables.Request.Report
	formatting := report.Formatting
	sheet := formatting.PivotSheetName()
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headerRows := 1
	for _, col := range tables.Pivot.Columns {
		if labels, ok := report.ColumnMap.Labels(col.Name); ok && len(labels) > headerRows {
			headerRows = len(labels)
		}
	}

	widths := make([]int, len(tables.Pivot.Columns)+1)
	widths[0] = 19

	// Timestamp header spans every header row
	tsTop, _ := excelize.CoordinatesToCellName(1, 1)
	if err := f.SetCellValue(sheet, tsTop, "Timestamp"); err != nil {
		return err
	}
	for level := 0; level < headerRows; level++ {
		cell, _ := excelize.CoordinatesToCellName(1, level+1)
		setStyle(f, sheet, cell, styles.headerStyle(level))
	}
	if headerRows > 1 {
		tsBottom, _ := excelize.CoordinatesToCellName(1, headerRows)
		if err := f.MergeCell(sheet, tsTop, tsBottom); err != nil {
			return err
		}
	}

	labelGrid := make([][]string, len(tables.Pivot.Columns))
	for i, col := range tables.Pivot.Columns {
		labelGrid[i] = headerLabels(col, report.ColumnMap, headerRows)
		for level, label := range labelGrid[i] {
			cell, _ := excelize.CoordinatesToCellName(i+2, level+1)
			if err := f.SetCellValue(sheet, cell, label); err != nil {
				return err
			}
			setStyle(f, sheet, cell, styles.headerStyle(level))
			widths[i+1] = maxInt(widths[i+1], len(label))
		}
	}
	if err := mergeHeaderRuns(f, sheet, labelGrid, headerRows); err != nil {
		return err
	}

	for rowIdx, pivot := range tables.Pivot.Rows {
		row := rowIdx + headerRows + 1
		tsCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, tsCell, pivot.Timestamp); err != nil {
			return err
		}
		setStyle(f, sheet, tsCell, styles.datetime)

		for i, col := range tables.Pivot.Columns {
			v, ok := pivot.Cells[col.Name]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+2, row)
			if err := f.SetCellValue(sheet, cell, *v); err != nil {
				return err
			}
			setStyle(f, sheet, cell, styles.number)
		}
	}

	applyColumnWidths(f, sheet, widths, formatting)
	return freeze(f, sheet, headerRows, formatting.FreezePivot)
}

func writeAggregateSheet(f *excelize.File, tables *entity.TableSet, agg entity.AggregateTable, styles sheetStyles) error {
	report := tables.Request.Report
	formatting := report.Formatting
	sheet := formatting.SheetName(agg.Granularity)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	widths := make([]int, len(agg.Columns)+1)
	widths[0] = 12

	dateHeader, _ := excelize.CoordinatesToCellName(1, 1)
	if err := f.SetCellValue(sheet, dateHeader, "Date"); err != nil {
		return err
	}
	setStyle(f, sheet, dateHeader, styles.headerStyle(0))

	for i, col := range agg.Columns {
		name := displayName(col, report.ColumnMap)
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
		setStyle(f, sheet, cell, styles.headerStyle(0))
		widths[i+1] = maxInt(widths[i+1], len(name))
	}

	for rowIdx, row := range agg.Rows {
		rowNum := rowIdx + 2
		dateCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetCellValue(sheet, dateCell, row.Date); err != nil {
			return err
		}
		setStyle(f, sheet, dateCell, styles.date)

		for i, col := range agg.Columns {
			v, ok := row.Cells[col.Name]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+2, rowNum)
			if err := f.SetCellValue(sheet, cell, *v); err != nil {
				return err
			}
			setStyle(f, sheet, cell, styles.number)
		}
	}

	applyColumnWidths(f, sheet, widths, formatting)
	return freeze(f, sheet, 1, formatting.FreezeFor(agg.Granularity))
}

// headerLabels returns one label per header row for a column: the column_map
// labels when mapped, otherwise the entity and key split across the first two
// rows. Labels are padded by repeating the last one so vertical runs merge
// cleanly.
func headerLabels(col entity.PivotColumn, columnMap entity.ColumnMap, headerRows int) []string {
	labels, ok := columnMap.Labels(col.Name)
	if !ok || len(labels) == 0 {
		if headerRows == 1 {
			labels = []string{col.Name}
		} else {
			labels = []string{col.Entity, col.Key}
		}
	}
	out := make([]string, headerRows)
	for i := 0; i < headerRows; i++ {
		if i < len(labels) {
			out[i] = labels[i]
		} else {
			out[i] = labels[len(labels)-1]
		}
	}
	return out
}

// mergeHeaderRuns merges horizontally adjacent header cells that carry the
// same label and share the same labels on every row above, producing the
// usual grouped multi-row header.
func mergeHeaderRuns(f *excelize.File, sheet string, grid [][]string, headerRows int) error {
	sameGroup := func(a, b int, level int) bool {
		for l := 0; l <= level; l++ {
			if grid[a][l] != grid[b][l] {
				return false
			}
		}
		return true
	}

	for level := 0; level < headerRows-1; level++ {
		start := 0
		for start < len(grid) {
			end := start
			for end+1 < len(grid) && sameGroup(start, end+1, level) {
				end++
			}
			if end > start {
				from, _ := excelize.CoordinatesToCellName(start+2, level+1)
				to, _ := excelize.CoordinatesToCellName(end+2, level+1)
				if err := f.MergeCell(sheet, from, to); err != nil {
					return err
				}
			}
			start = end + 1
		}
	}
	return nil
}

func applyColumnWidths(f *excelize.File, sheet string, widths []int, formatting entity.FormattingConfig) {
	minW, maxW := formatting.MinColWidth, formatting.MaxColWidth
	if maxW <= 0 {
		return
	}
	for i, w := range widths {
		width := float64(w) + 2
		if width < minW {
			width = minW
		}
		if width > maxW {
			width = maxW
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, width)
	}
}

// freeze applies the configured freeze panes. The configured row count is on
// top of any extra header rows the sheet carries.
func freeze(f *excelize.File, sheet string, headerRows int, cfg [2]int) error {
	rows := headerRows + cfg[0] - 1
	cols := cfg[1]
	if rows <= 0 && cols <= 0 {
		return nil
	}
	topLeft, _ := excelize.CoordinatesToCellName(cols+1, rows+1)
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      cols,
		YSplit:      rows,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	})
}

func setStyle(f *excelize.File, sheet, cell string, style int) {
	if style == 0 {
		return
	}
	_ = f.SetCellStyle(sheet, cell, cell, style)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
