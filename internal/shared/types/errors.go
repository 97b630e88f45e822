package types

import "errors"

var (
	ErrMissingTimeRange = errors.New("missing timeEpoch.startTs_ms or timeEpoch.endTs_ms")
	ErrNoEntities       = errors.New("no entities in payload")
	ErrNoKeys           = errors.New("no keys in payload")
	ErrBadTimezone      = errors.New("unknown timezone in payload")
)
