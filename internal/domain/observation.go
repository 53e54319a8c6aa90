package domain

import (
	"time"
)

// NationalRegion labels the synthetic rollup of every state.
const NationalRegion = "United States"

const secondsPerDay = 24 * 60 * 60

// Day is a calendar date counted in days since 1970-01-01 UTC.
// It orders naturally, which lets dates serve as pivot keys.
type Day int32

// DayOf returns the calendar date of t, ignoring time of day.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Day) String() string {
	return d.Time().Format(time.DateOnly)
}

// Observation is one input record: cumulative counts for a county on a date.
type Observation struct {
	State       string
	FIPS        int64 // 0 when the record carries no county code
	Date        Day
	TotalCases  int64
	TotalDeaths int64
	Population  int64
}

// Totals holds the additive counts of a region on a date.
type Totals struct {
	Cases      int64
	Deaths     int64
	Population int64
}

// Add returns the element-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Cases:      t.Cases + o.Cases,
		Deaths:     t.Deaths + o.Deaths,
		Population: t.Population + o.Population,
	}
}

// Totals returns the observation's additive counts.
func (o Observation) Totals() Totals {
	return Totals{Cases: o.TotalCases, Deaths: o.TotalDeaths, Population: o.Population}
}
