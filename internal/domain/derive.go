package domain

import (
	"cmp"
	"maps"
	"math"
)

// Record is one (region, date) row of the derived table.
type Record[K cmp.Ordered] struct {
	Region K
	Date   Day
	Totals
	Stats map[Statistic]float64
}

// Value returns the named statistic, or NaN when the record has none.
func (r Record[K]) Value(s Statistic) float64 {
	v, ok := r.Stats[s]
	if !ok {
		return math.NaN()
	}
	return v
}

// Derive computes the per-capita, daily and moving-average statistics for rows
// in the order given. Daily deltas are taken against the previous row of the
// same region; moving averages run over the whole column, so rows are expected
// grouped by region and sorted by date as Aggregate and AppendRollup produce.
// Missing values are NaN; see FillMissing.
func Derive[K cmp.Ordered](rows []RegionDay[K]) []Record[K] {
	out := make([]Record[K], len(rows))
	for i, r := range rows {
		out[i] = Record[K]{
			Region: r.Region,
			Date:   r.Date,
			Totals: r.Totals,
			Stats:  make(map[Statistic]float64, len(PivotStatistics)),
		}
	}

	for _, m := range metrics {
		daily := make([]float64, len(rows))
		previous := make(map[K]int64)

		for i, r := range rows {
			total := m.count(r.Totals)
			out[i].Stats[m.total] = float64(total)
			out[i].Stats[m.perCapita] = perCapita(float64(total), r.Population)

			if prev, ok := previous[r.Region]; ok {
				daily[i] = float64(total - prev)
			} else {
				daily[i] = math.NaN()
			}
			previous[r.Region] = total
			out[i].Stats[m.daily] = daily[i]
		}

		avg := RollingMean(daily, MovingAverageWindow)
		for i, r := range rows {
			out[i].Stats[m.dailyMA] = avg[i]
			out[i].Stats[m.perCapMA] = perCapita(avg[i], r.Population)
		}
	}

	return out
}

// RollingMean returns the trailing mean of window samples ending at each
// position. Positions with fewer than window samples, or whose window holds a
// NaN, are NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if window <= 0 || i+1 < window {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for _, v := range values[i+1-window : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// FillMissing replaces every NaN statistic with zero and returns new records.
// Infinities from a zero population are left as they are.
func FillMissing[K cmp.Ordered](records []Record[K]) []Record[K] {
	out := make([]Record[K], len(records))
	for i, r := range records {
		stats := maps.Clone(r.Stats)
		for s, v := range stats {
			if math.IsNaN(v) {
				stats[s] = 0
			}
		}
		r.Stats = stats
		out[i] = r
	}
	return out
}

func perCapita(v float64, population int64) float64 {
	return v / float64(population) * perMillion
}
