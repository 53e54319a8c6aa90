package domain

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Cell is one long-format value: a statistic at an (index, column) position.
type Cell[I, C cmp.Ordered] struct {
	Index     I
	Column    C
	Statistic Statistic
	Value     float64
}

// Cells flattens records into long-format cells for the given statistics.
// at decides which record field becomes the row index and which the column key.
func Cells[K, I, C cmp.Ordered](records []Record[K], stats []Statistic, at func(Record[K]) (I, C)) []Cell[I, C] {
	out := make([]Cell[I, C], 0, len(records)*len(stats))
	for _, r := range records {
		idx, col := at(r)
		for _, s := range stats {
			out = append(out, Cell[I, C]{Index: idx, Column: col, Statistic: s, Value: r.Value(s)})
		}
	}
	return out
}

// ByDate puts dates on rows and regions on columns (the state table).
func ByDate[K cmp.Ordered](r Record[K]) (Day, K) {
	return r.Date, r.Region
}

// ByRegion puts regions on rows and dates on columns (the county table).
func ByRegion[K cmp.Ordered](r Record[K]) (K, Day) {
	return r.Region, r.Date
}

// ColumnKey is the two-level key of a wide column.
type ColumnKey[C cmp.Ordered] struct {
	Statistic Statistic
	Key       C
}

// Wide is a pivoted table: one row per index value, one column per
// (statistic, key) pair. Values[row][col] is NaN where no cell was present.
type Wide[I, C cmp.Ordered] struct {
	IndexName string
	Index     []I
	Columns   []ColumnKey[C]
	Values    [][]float64
}

// Pivot reshapes long cells into a wide table. Rows are sorted by index and
// columns by (statistic, key). Cells sharing a position are averaged. NaN
// values are ignored, so a row or column appears only if it holds at least one
// value.
func Pivot[I, C cmp.Ordered](indexName string, cells []Cell[I, C]) Wide[I, C] {
	rowSet := make(map[I]struct{})
	colSet := make(map[ColumnKey[C]]struct{})
	for _, c := range cells {
		if math.IsNaN(c.Value) {
			continue
		}
		rowSet[c.Index] = struct{}{}
		colSet[ColumnKey[C]{Statistic: c.Statistic, Key: c.Column}] = struct{}{}
	}

	index := make([]I, 0, len(rowSet))
	for i := range rowSet {
		index = append(index, i)
	}
	slices.Sort(index)

	columns := make([]ColumnKey[C], 0, len(colSet))
	for k := range colSet {
		columns = append(columns, k)
	}
	slices.SortFunc(columns, compareColumnKey[C])

	rowPos := make(map[I]int, len(index))
	for i, v := range index {
		rowPos[v] = i
	}
	colPos := make(map[ColumnKey[C]]int, len(columns))
	for i, k := range columns {
		colPos[k] = i
	}

	sums := make([][]float64, len(index))
	counts := make([][]int, len(index))
	for i := range index {
		sums[i] = make([]float64, len(columns))
		counts[i] = make([]int, len(columns))
	}
	for _, c := range cells {
		if math.IsNaN(c.Value) {
			continue
		}
		r := rowPos[c.Index]
		k := colPos[ColumnKey[C]{Statistic: c.Statistic, Key: c.Column}]
		sums[r][k] += c.Value
		counts[r][k]++
	}

	values := make([][]float64, len(index))
	for r := range index {
		values[r] = make([]float64, len(columns))
		for k := range columns {
			if counts[r][k] == 0 {
				values[r][k] = math.NaN()
				continue
			}
			values[r][k] = sums[r][k] / float64(counts[r][k])
		}
	}

	return Wide[I, C]{IndexName: indexName, Index: index, Columns: columns, Values: values}
}

// Melt is the inverse of Pivot: it returns one cell per present value, in row
// then column order.
func Melt[I, C cmp.Ordered](w Wide[I, C]) []Cell[I, C] {
	var out []Cell[I, C]
	for r, idx := range w.Index {
		for k, col := range w.Columns {
			v := w.Values[r][k]
			if math.IsNaN(v) {
				continue
			}
			out = append(out, Cell[I, C]{Index: idx, Column: col.Key, Statistic: col.Statistic, Value: v})
		}
	}
	return out
}

// Frame flattens the wide table into named columns with stringified
// two-level column labels, ready for a writer.
func (w Wide[I, C]) Frame(name string) Frame {
	index := Column{Name: w.IndexName, Kind: kindOf(*new(I)), Values: make([]any, len(w.Index))}
	for r, v := range w.Index {
		index.Values[r] = cellValue(v)
	}

	cols := make([]Column, 0, len(w.Columns)+1)
	cols = append(cols, index)
	for k, ck := range w.Columns {
		col := Column{Name: ColumnLabel(ck.Statistic, ck.Key), Kind: KindFloat, Values: make([]any, len(w.Index))}
		for r := range w.Index {
			col.Values[r] = w.Values[r][k]
		}
		cols = append(cols, col)
	}
	return Frame{Name: name, Columns: cols}
}

func compareColumnKey[C cmp.Ordered](a, b ColumnKey[C]) int {
	if c := cmp.Compare(a.Statistic, b.Statistic); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

// columnLabelRe matches a rendered two-level label, e.g. "('Total Cases', 'Ohio')".
var columnLabelRe = regexp.MustCompile(`^\('([^']*)', (.+)\)$`)

// ColumnLabel renders a (statistic, key) pair as a Python-style tuple, the
// form the dashboard uses to rebuild its two-level columns.
func ColumnLabel(stat Statistic, key any) string {
	return fmt.Sprintf("(%s, %s)", quote(string(stat)), keyRepr(key))
}

// ParseColumnLabel splits a label produced by ColumnLabel back into the
// statistic and the unquoted key.
func ParseColumnLabel(label string) (Statistic, string, bool) {
	m := columnLabelRe.FindStringSubmatch(label)
	if m == nil {
		return "", "", false
	}
	return Statistic(m[1]), unquote(m[2]), true
}

func keyRepr(key any) string {
	switch k := key.(type) {
	case Day:
		return quote(k.String())
	case string:
		return quote(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case int:
		return strconv.Itoa(k)
	default:
		return quote(fmt.Sprint(k))
	}
}

func quote(s string) string {
	if strings.Contains(s, "'") {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func kindOf(v any) ColumnKind {
	switch v.(type) {
	case Day, time.Time:
		return KindDate
	case int64, int:
		return KindInt
	case float64:
		return KindFloat
	default:
		return KindText
	}
}

func cellValue(v any) any {
	switch x := v.(type) {
	case Day:
		return x.Time()
	case int:
		return int64(x)
	case int64, string, float64, time.Time:
		return x
	default:
		return fmt.Sprint(x)
	}
}
