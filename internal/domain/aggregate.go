package domain

import (
	"cmp"
	"slices"
)

// RegionDay holds the summed totals of one region on one date.
type RegionDay[K cmp.Ordered] struct {
	Region K
	Date   Day
	Totals
}

// StateKey groups observations by state name. Records without a state are skipped.
func StateKey(o Observation) (string, bool) {
	return o.State, o.State != ""
}

// CountyKey groups observations by composite FIPS code. Records without a code are skipped.
func CountyKey(o Observation) (int64, bool) {
	return o.FIPS, o.FIPS != 0
}

// Aggregate groups observations by (region, date) and sums their totals.
// Population is summed too: each county contributes its own population once
// per date, so the sum is the region's population. The result is sorted by
// region, then date.
func Aggregate[K cmp.Ordered](obs []Observation, key func(Observation) (K, bool)) []RegionDay[K] {
	type groupKey struct {
		region K
		date   Day
	}

	sums := make(map[groupKey]Totals)
	for _, o := range obs {
		region, ok := key(o)
		if !ok {
			continue
		}
		k := groupKey{region: region, date: o.Date}
		sums[k] = sums[k].Add(o.Totals())
	}

	out := make([]RegionDay[K], 0, len(sums))
	for k, t := range sums {
		out = append(out, RegionDay[K]{Region: k.region, Date: k.date, Totals: t})
	}
	slices.SortFunc(out, compareRegionDay[K])
	return out
}

// Rollup sums every region per date into a single synthetic region with the
// given label. The result is sorted by date.
func Rollup[K cmp.Ordered](rows []RegionDay[K], label K) []RegionDay[K] {
	sums := make(map[Day]Totals)
	for _, r := range rows {
		sums[r.Date] = sums[r.Date].Add(r.Totals)
	}

	out := make([]RegionDay[K], 0, len(sums))
	for d, t := range sums {
		out = append(out, RegionDay[K]{Region: label, Date: d, Totals: t})
	}
	slices.SortFunc(out, func(a, b RegionDay[K]) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

// AppendRollup returns rows followed by their rollup, so the rollup behaves as
// one more region in every later step.
func AppendRollup[K cmp.Ordered](rows []RegionDay[K], label K) []RegionDay[K] {
	out := make([]RegionDay[K], 0, len(rows)+len(rows)/2)
	out = append(out, rows...)
	return append(out, Rollup(rows, label)...)
}

func compareRegionDay[K cmp.Ordered](a, b RegionDay[K]) int {
	if c := cmp.Compare(a.Region, b.Region); c != 0 {
		return c
	}
	return cmp.Compare(a.Date, b.Date)
}
