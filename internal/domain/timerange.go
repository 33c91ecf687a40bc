package domain

import (
	"math"
	"time"
)

// TimeRange booking interval with End always after Start
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange builds a range; an end at or before start is clamped to start + MinBookingDuration
func NewTimeRange(start, end time.Time) TimeRange {
	if !end.After(start) {
		end = start.Add(MinBookingDuration)
	}
	return TimeRange{Start: start, End: end}
}

// DurationHours returns the fractional number of hours in the range
func (r TimeRange) DurationHours() float64 {
	return r.End.Sub(r.Start).Seconds() / 3600
}

// Cost returns the price of the range at the given hourly rate
func (r TimeRange) Cost(hourlyRate float64) float64 {
	return r.DurationHours() * hourlyRate
}

// DurationParts splits the duration into whole hours and remaining minutes.
// Minutes that round up to 60 carry into hours, so the result is never (h, 60).
func (r TimeRange) DurationParts() (hours, minutes int) {
	d := r.DurationHours()
	h := math.Floor(d)
	hours = int(h)
	minutes = int(math.Round((d - h) * 60))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return hours, minutes
}
