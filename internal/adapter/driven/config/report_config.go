package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// DefaultReportConfig retorna a configuração de relatório padrão usada quando
// o payload não traz uma seção reportConfig.
func DefaultReportConfig() entity.ReportConfig {
	return entity.ReportConfig{
		Filename:          "tb_pivot_export.xlsx",
		FilenameTimestamp: true,
		ColumnMap:         entity.NewColumnMap(),
		AggMap: entity.AggMap{
			"default": entity.AggMean,
		},
		Sheets: entity.SheetsConfig{
			WeekStart: "Sunday",
		},
		Formatting: entity.FormattingConfig{
			SheetRaw:     "Raw Data",
			SheetPivot:   "Pivot",
			SheetDaily:   "Daily",
			SheetWeekly:  "Weekly",
			SheetMonthly: "Monthly",
			SheetYearly:  "Yearly",

			HeaderFillColors: []string{"B8CCE4", "D9E1F2", "EEF2FA"},
			HeaderFontBold:   true,
			HeaderFontSize:   11,
			HeaderAlignment:  "center",

			BorderStyle:    "thin",
			NumberFormat:   "#,##0.00",
			DatetimeFormat: "yyyy-mm-dd hh:mm:ss",
			DateFormat:     "yyyy-mm-dd",

			MaxColWidth: 60,
			MinColWidth: 18,

			FreezeRaw:     [2]int{1, 2},
			FreezePivot:   [2]int{1, 1},
			FreezeDaily:   [2]int{1, 1},
			FreezeWeekly:  [2]int{1, 1},
			FreezeMonthly: [2]int{1, 1},
			FreezeYearly:  [2]int{1, 1},
		},
	}
}

// reportOverrides espelha a seção reportConfig do payload, mantendo cada
// subseção crua para aplicar a regra de mesclagem correta.
type reportOverrides struct {
	Filename          *string         `json:"filename"`
	FilenameTimestamp *bool           `json:"filename_timestamp"`
	ColumnMap         json.RawMessage `json:"column_map"`
	AggMap            json.RawMessage `json:"agg_map"`
	Sheets            json.RawMessage `json:"sheets"`
	Formatting        json.RawMessage `json:"formatting"`
}

// ResolveReportConfig mescla os overrides do payload sobre os padrões.
// filename e filename_timestamp substituem; sheets e formatting mesclam campo
// a campo, com {} desligando a seção inteira; agg_map mescla entrada a
// entrada, com {} removendo todas; column_map substitui por completo,
// preservando a ordem de declaração.
func (r *ConfigRepositoryImpl) ResolveReportConfig(overrides json.RawMessage) (entity.ReportConfig, error) {
	resolved := DefaultReportConfig()

	overrides = bytes.TrimSpace(overrides)
	if len(overrides) == 0 || bytes.Equal(overrides, []byte("null")) {
		return resolved, nil
	}

	var o reportOverrides
	if err := json.Unmarshal(overrides, &o); err != nil {
		return entity.ReportConfig{}, fmt.Errorf("parsing reportConfig: %w", err)
	}

	if o.Filename != nil {
		resolved.Filename = *o.Filename
	}
	if o.FilenameTimestamp != nil {
		resolved.FilenameTimestamp = *o.FilenameTimestamp
	}

	if present(o.ColumnMap) {
		var cm entity.ColumnMap
		if err := json.Unmarshal(o.ColumnMap, &cm); err != nil {
			return entity.ReportConfig{}, fmt.Errorf("parsing reportConfig.column_map: %w", err)
		}
		resolved.ColumnMap = cm
	}

	if present(o.AggMap) {
		if emptyObject(o.AggMap) {
			resolved.AggMap = entity.AggMap{}
		} else {
			var overlay entity.AggMap
			if err := json.Unmarshal(o.AggMap, &overlay); err != nil {
				return entity.ReportConfig{}, fmt.Errorf("parsing reportConfig.agg_map: %w", err)
			}
			for k, v := range overlay {
				resolved.AggMap[k] = v
			}
		}
	}

	if present(o.Sheets) {
		if emptyObject(o.Sheets) {
			resolved.Sheets = entity.SheetsConfig{}
		} else if err := json.Unmarshal(o.Sheets, &resolved.Sheets); err != nil {
			return entity.ReportConfig{}, fmt.Errorf("parsing reportConfig.sheets: %w", err)
		}
	}

	if present(o.Formatting) {
		if emptyObject(o.Formatting) {
			resolved.Formatting = entity.FormattingConfig{}
		} else if err := json.Unmarshal(o.Formatting, &resolved.Formatting); err != nil {
			return entity.ReportConfig{}, fmt.Errorf("parsing reportConfig.formatting: %w", err)
		}
	}

	return resolved, nil
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func emptyObject(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}
