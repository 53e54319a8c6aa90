// Command validate checks a written state pivot file: every column label must
// parse back into (statistic, region), every statistic must carry a national
// column, and national totals must equal the sum of the state totals on every
// date.
//
// Usage:
//
//	go run ./cmd/validate -state ../COVID19StatePivot.parquet.gzip
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	duckdbadapter "github.com/couchcryptid/covid-pivot-etl/internal/adapter/duckdb"
	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

// tolerance is the relative error allowed between a national value and the state sum.
const tolerance = 1e-9

// additive statistics whose national value is the sum over states.
var additive = []domain.Statistic{domain.TotalCases, domain.TotalDeaths}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	statePath := flag.String("state", "", "path to the state pivot Parquet file")
	flag.Parse()

	if *statePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*statePath))
}

func run(statePath string) int {
	fmt.Println("=== State Pivot Validation ===")
	fmt.Println()

	store, err := duckdbadapter.Open(context.Background(), "", "", slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open duckdb: %v\n", err)
		return 1
	}
	defer store.Close()

	frame, err := store.ReadFrame(context.Background(), statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load state pivot: %v\n", err)
		return 1
	}

	groups, labels := groupColumns(frame)
	phases := []*phase{
		labels,
		validateNationalColumns(groups),
		validateRollup(frame, groups),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d, columns: %d, statistics: %d\n", frame.Len(), len(frame.Columns), len(groups))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// groupColumns maps each statistic to its region columns. The first column is
// the date index and is skipped.
func groupColumns(frame domain.Frame) (map[domain.Statistic]map[string]domain.Column, *phase) {
	p := &phase{name: "Column labels parse"}
	groups := make(map[domain.Statistic]map[string]domain.Column)
	for i, col := range frame.Columns {
		if i == 0 {
			continue
		}
		stat, region, ok := domain.ParseColumnLabel(col.Name)
		if !ok {
			p.errorf("unparseable column label %q", col.Name)
			continue
		}
		if groups[stat] == nil {
			groups[stat] = make(map[string]domain.Column)
		}
		groups[stat][region] = col
	}
	return groups, p
}

func validateNationalColumns(groups map[domain.Statistic]map[string]domain.Column) *phase {
	p := &phase{name: "National column per statistic"}
	for _, stat := range domain.PivotStatistics {
		regions, ok := groups[stat]
		if !ok {
			p.errorf("statistic %q has no columns", stat)
			continue
		}
		if _, ok := regions[domain.NationalRegion]; !ok {
			p.errorf("statistic %q has no %q column", stat, domain.NationalRegion)
		}
	}
	return p
}

func validateRollup(frame domain.Frame, groups map[domain.Statistic]map[string]domain.Column) *phase {
	p := &phase{name: "National totals equal state sums"}
	dates := frame.Columns[0].Values

	for _, stat := range additive {
		national, ok := groups[stat][domain.NationalRegion]
		if !ok {
			continue
		}
		var regions []string
		for r := range groups[stat] {
			if r != domain.NationalRegion {
				regions = append(regions, r)
			}
		}
		slices.Sort(regions)

		for row := range frame.Len() {
			var sum float64
			for _, r := range regions {
				if v := toFloat(groups[stat][r].Values[row]); !math.IsNaN(v) {
					sum += v
				}
			}
			want := toFloat(national.Values[row])
			if math.Abs(want-sum) > tolerance*math.Max(1, math.Abs(want)) {
				p.errorf("%s on %v: national %.0f, state sum %.0f", stat, dates[row], want, sum)
			}
		}
	}
	return p
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	default:
		return math.NaN()
	}
}
