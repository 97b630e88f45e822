package repository

import (
	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// ExportRepository defines the interface for writing report files.
type ExportRepository interface {
	ExportToXLSX(tables *entity.TableSet, baseName string, outputDir string) (string, error)
	ExportToCSV(tables *entity.TableSet, baseName string, outputDir string) ([]string, error)
	ExportToJSON(tables *entity.TableSet, baseName string, outputDir string) (string, error)
	ExportToPDF(tables *entity.TableSet, baseName string, outputDir string) (string, error)
}
