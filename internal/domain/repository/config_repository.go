package repository

import (
	"encoding/json"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration files and
// resolving the per-run report configuration.
type ConfigRepository interface {
	LoadConfigFile(filePath string) (*types.Config, error)

	// ResolveReportConfig merges payload reportConfig overrides on top of the
	// built-in defaults, section by section.
	ResolveReportConfig(overrides json.RawMessage) (entity.ReportConfig, error)
}
