package ingestor

import (
	"strings"
	"time"
)

type interval string
type intervalOptions []interval

func (option interval) Match(input string) bool {
	return strings.ToUpper(input) == string(option)
}

func (options intervalOptions) Includes(input string) bool {
	for _, i := range options {
		if i.Match(input) {
			return true
		}
	}
	return false
}

const (
	ONE_HOUR     = time.Hour
	SIX_HOURS    = 6 * time.Hour
	TWELVE_HOURS = 12 * time.Hour
	ONE_DAY      = 24 * time.Hour
	ONE_WEEK     = 7 * ONE_DAY
	ONE_MONTH    = 30 * ONE_DAY
)

// ValidTimeIntervals are the accepted Datadog lookback windows.
var ValidTimeIntervals intervalOptions = intervalOptions{
	"ONE_HOUR",
	"SIX_HOURS",
	"TWELVE_HOURS",
	"ONE_DAY",
	"ONE_WEEK",
	"ONE_MONTH",
}

var TimeIntervalToDurationMapping = map[string]time.Duration{
	"ONE_HOUR":     ONE_HOUR,
	"SIX_HOURS":    SIX_HOURS,
	"TWELVE_HOURS": TWELVE_HOURS,
	"ONE_DAY":      ONE_DAY,
	"ONE_WEEK":     ONE_WEEK,
	"ONE_MONTH":    ONE_MONTH,
}

// DurationRange is the window ending at the moment it was created.
type DurationRange struct {
	end      time.Time
	duration time.Duration
}

func (dr DurationRange) Start() time.Time {
	return dr.end.Add(-dr.duration)
}

func (dr DurationRange) End() time.Time {
	return dr.end
}

func NewDurationRange(d time.Duration) DurationRange {
	return DurationRange{end: time.Now(), duration: d}
}
