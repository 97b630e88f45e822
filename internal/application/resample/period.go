package resample

import (
	"time"

	"github.com/lhtools/tb-pivot-export-go/internal/domain/entity"
)

// PeriodStart returns midnight of the calendar period containing t, in t's
// location. Weekly periods start on the configured week start day.
func PeriodStart(t time.Time, g entity.Granularity, weekStart time.Weekday) time.Time {
	switch g {
	case entity.GranularityDaily:
		return floorDay(t)
	case entity.GranularityWeekly:
		day := floorDay(t)
		offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
		return day.AddDate(0, 0, -offset)
	case entity.GranularityMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case entity.GranularityYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	}
	return floorDay(t)
}

// NextPeriodStart returns the start of the period following the one that
// begins at start.
func NextPeriodStart(start time.Time, g entity.Granularity) time.Time {
	switch g {
	case entity.GranularityDaily:
		return start.AddDate(0, 0, 1)
	case entity.GranularityWeekly:
		return start.AddDate(0, 0, 7)
	case entity.GranularityMonthly:
		return start.AddDate(0, 1, 0)
	case entity.GranularityYearly:
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 0, 1)
}

// completionCutoff returns the instant the data range must reach for the
// period starting at start to count as fully covered. Days and months need
// data up to one second before the next period. Weeks need data into their
// seventh day, and years into their last day.
func completionCutoff(start time.Time, g entity.Granularity) time.Time {
	next := NextPeriodStart(start, g)
	switch g {
	case entity.GranularityWeekly:
		return start.AddDate(0, 0, 6)
	case entity.GranularityYearly:
		return next.Add(-24 * time.Hour)
	}
	return next.Add(-time.Second)
}

func floorDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
