package repository

import (
	"context"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// TelemetryRepository defines the interface for the remote telemetry source.
type TelemetryRepository interface {
	// FetchTimeseries returns the full point list per key for one entity over
	// the closed range [startTs, endTs] (milliseconds). Implementations must
	// transparently split the range into chunks when the server-side interval
	// cap would be exceeded, and merge the chunk responses losslessly.
	FetchTimeseries(ctx context.Context, ref entity.EntityRef, keys []string,
		startTs, endTs int64, limit int, agg string, intervalMs int64) (entity.KeyedSeries, error)
}
