// Package domain models regional COVID-19 case and death counts and the
// statistics derived from them for the dashboard pivots.
//
// # Data Source
//
// The input is a pre-aggregated table with one record per county per date,
// carrying cumulative totals and the county population:
//
//	Total Cases, Total Deaths, total_population, state, date, fips_code
//
// Totals are cumulative, so day-over-day changes come from differencing.
// Population is constant per region across dates and is used as a fixed divisor.
//
// # Regions
//
// Two granularities are built from the same records:
//
//	State:  grouped by state name, plus the synthetic "United States" rollup
//	        (the per-date sum over every state) appended after the real states.
//	County: grouped by the composite FIPS code (state code followed by the
//	        three-digit county code, parsed as an integer, e.g. "01"+"001" = 1001).
//
// # Derived Statistics
//
// For each metric M in {Cases, Deaths}:
//
//	M per Million                     = Total M / population * 1e6
//	Daily M                           = Total M[t] - Total M[t-1] (within a region)
//	Daily M 7 Day MA                  = mean of the last 7 Daily M samples
//	Daily M per Million 7 Day MA      = Daily M 7 Day MA / population * 1e6
//
// Missing values are carried as NaN. The first record of every region has no
// Daily value, and a moving-average window that contains a missing value is
// itself missing. Rolling runs over the concatenated column (every region in
// sequence); the leading missing delta of each region means a window can never
// mix two regions. [FillMissing] replaces every NaN with zero, which makes
// "not enough history" indistinguishable from "no change".
//
// # Wide Tables
//
// [Pivot] turns long (index, column, statistic, value) cells into a wide table
// with one row per index value and one column per (statistic, column) pair,
// sorted by statistic then column key. Column labels are rendered as
// Python-style tuples by [ColumnLabel], e.g. "('Cases per Million', 'Alabama')",
// and parsed back by [ParseColumnLabel].
package domain
