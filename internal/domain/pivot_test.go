package domain

import (
	"cmp"
	"math"
	"slices"
	"testing"
	"time"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateRecords(t *testing.T) []Record[string] {
	t.Helper()
	rows := AppendRollup(Aggregate([]Observation{
		obs("Ohio", 39001, 0, 10, 1, 100),
		obs("Ohio", 39001, 1, 20, 1, 100),
		obs("Alabama", 1001, 0, 5, 0, 100),
		obs("Alabama", 1001, 1, 15, 2, 100),
	}, StateKey), NationalRegion)
	return FillMissing(Derive(rows))
}

func TestPivot_StateTable(t *testing.T) {
	wide := Pivot("date", Cells(stateRecords(t), PivotStatistics, ByDate[string]))

	assert.Equal(t, "date", wide.IndexName)
	assert.Equal(t, []Day{day0, day0 + 1}, wide.Index)
	require.Len(t, wide.Columns, len(PivotStatistics)*3)

	assert.True(t, slices.IsSortedFunc(wide.Columns, compareColumnKey[string]))
	assert.Equal(t, ColumnKey[string]{Statistic: CasesPerMillion, Key: "Alabama"}, wide.Columns[0])
	assert.Equal(t, ColumnKey[string]{Statistic: CasesPerMillion, Key: "Ohio"}, wide.Columns[1])
	assert.Equal(t, ColumnKey[string]{Statistic: CasesPerMillion, Key: NationalRegion}, wide.Columns[2])

	col := slices.Index(wide.Columns, ColumnKey[string]{Statistic: TotalCases, Key: NationalRegion})
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, []float64{15, 35}, []float64{wide.Values[0][col], wide.Values[1][col]})

	col = slices.Index(wide.Columns, ColumnKey[string]{Statistic: DailyCases, Key: "Ohio"})
	require.GreaterOrEqual(t, col, 0)
	assert.Equal(t, []float64{0, 10}, []float64{wide.Values[0][col], wide.Values[1][col]})
}

func TestPivot_CountyTableKeyedByRegion(t *testing.T) {
	rows := Aggregate([]Observation{
		obs("Georgia", 13001, 1, 3, 0, 10),
		obs("Georgia", 13001, 0, 1, 0, 10),
		obs("California", 6037, 0, 8, 1, 20),
	}, CountyKey)
	wide := Pivot("fips_code", Cells(FillMissing(Derive(rows)), PivotStatistics, ByRegion[int64]))

	assert.Equal(t, []int64{6037, 13001}, wide.Index)
	assert.Equal(t, ColumnKey[Day]{Statistic: CasesPerMillion, Key: day0}, wide.Columns[0])
	assert.Equal(t, ColumnKey[Day]{Statistic: CasesPerMillion, Key: day0 + 1}, wide.Columns[1])

	// 6037 has no record on the second day.
	assert.True(t, math.IsNaN(wide.Values[0][1]))
	assert.InDelta(t, 3.0/10*1e6, wide.Values[1][1], 1e-9)
}

func TestPivot_MeltRoundTrip(t *testing.T) {
	cells := Cells(stateRecords(t), PivotStatistics, ByDate[string])
	got := Melt(Pivot("date", cells))

	sortCells := func(cs []Cell[Day, string]) {
		slices.SortFunc(cs, func(a, b Cell[Day, string]) int {
			return cmp.Or(
				cmp.Compare(a.Index, b.Index),
				cmp.Compare(a.Statistic, b.Statistic),
				cmp.Compare(a.Column, b.Column),
			)
		})
	}
	sortCells(cells)
	sortCells(got)

	if diff := gocmp.Diff(cells, got); diff != "" {
		t.Fatalf("melt(pivot(x)) mismatch (-want +got):\n%s", diff)
	}
}

func TestPivot_IgnoresMissingValues(t *testing.T) {
	cells := []Cell[Day, string]{
		{Index: day0, Column: "A", Statistic: DailyCases, Value: math.NaN()},
		{Index: day0 + 1, Column: "A", Statistic: DailyCases, Value: 4},
		{Index: day0 + 2, Column: "B", Statistic: DailyCasesMA, Value: math.NaN()},
	}
	wide := Pivot("date", cells)

	assert.Equal(t, []Day{day0 + 1}, wide.Index)
	assert.Equal(t, []ColumnKey[string]{{Statistic: DailyCases, Key: "A"}}, wide.Columns)
	assert.Len(t, Melt(wide), 1)
}

func TestPivot_AveragesDuplicatePositions(t *testing.T) {
	wide := Pivot("date", []Cell[Day, string]{
		{Index: day0, Column: "A", Statistic: TotalCases, Value: 2},
		{Index: day0, Column: "A", Statistic: TotalCases, Value: 4},
	})
	require.Len(t, wide.Values, 1)
	assert.InDelta(t, 3.0, wide.Values[0][0], 1e-12)
}

func TestWide_Frame(t *testing.T) {
	wide := Pivot("date", Cells(stateRecords(t), PivotStatistics, ByDate[string]))
	frame := wide.Frame("state_pivot")

	assert.Equal(t, "state_pivot", frame.Name)
	assert.Equal(t, 2, frame.Len())
	require.Len(t, frame.Columns, len(wide.Columns)+1)

	index := frame.Columns[0]
	assert.Equal(t, "date", index.Name)
	assert.Equal(t, KindDate, index.Kind)
	assert.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), index.Values[0])

	col, ok := frame.Column("('Total Cases', 'United States')")
	require.True(t, ok)
	assert.Equal(t, KindFloat, col.Kind)
	assert.Equal(t, []any{15.0, 35.0}, col.Values)

	countyFrame := Wide[int64, Day]{IndexName: "fips_code", Index: []int64{1001}}.Frame("county_pivot")
	assert.Equal(t, KindInt, countyFrame.Columns[0].Kind)
	assert.Equal(t, []any{int64(1001)}, countyFrame.Row(0))
}

func TestColumnLabel(t *testing.T) {
	cases := []struct {
		stat  Statistic
		key   any
		label string
		want  string
	}{
		{CasesPerMillion, "Alabama", "('Cases per Million', 'Alabama')", "Alabama"},
		{DailyDeaths, day0, "('Daily Deaths', '2020-03-01')", "2020-03-01"},
		{TotalCases, int64(1001), "('Total Cases', 1001)", "1001"},
		{TotalDeaths, "Martha's Vineyard", `('Total Deaths', "Martha's Vineyard")`, "Martha's Vineyard"},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			label := ColumnLabel(tc.stat, tc.key)
			assert.Equal(t, tc.label, label)

			stat, key, ok := ParseColumnLabel(label)
			require.True(t, ok)
			assert.Equal(t, tc.stat, stat)
			assert.Equal(t, tc.want, key)
		})
	}

	_, _, ok := ParseColumnLabel("date")
	assert.False(t, ok)
}
