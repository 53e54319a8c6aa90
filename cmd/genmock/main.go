// Command genmock writes a synthetic observation table in the job's input
// schema, so the pipeline can run locally without the upstream data file.
// Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/COVID19DataForVoila.parquet.gzip \
//	  -days 60 -counties 3 -seed 1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"time"

	duckdbadapter "github.com/couchcryptid/covid-pivot-etl/internal/adapter/duckdb"
	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

var startDate = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)

type state struct {
	name string
	fips int64
}

var states = []state{
	{"Alabama", 1}, {"Alaska", 2}, {"Arizona", 4}, {"California", 6},
	{"Colorado", 8}, {"Florida", 12}, {"Georgia", 13}, {"Illinois", 17},
	{"Louisiana", 22}, {"Michigan", 26}, {"New Jersey", 34}, {"New York", 36},
	{"Ohio", 39}, {"Pennsylvania", 42}, {"Texas", 48}, {"Washington", 53},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output Parquet path")
	days := flag.Int("days", 60, "number of consecutive dates")
	counties := flag.Int("counties", 3, "counties per state")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" || *days < 1 || *counties < 1 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -out, -days, -counties")
	}

	frame := generate(rand.New(rand.NewPCG(*seed, *seed)), *days, *counties)

	store, err := duckdbadapter.Open(context.Background(), "", "gzip", slog.Default())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteFrame(context.Background(), frame, *out); err != nil {
		return err
	}
	log.Printf("wrote %d observations for %d states to %s", frame.Len(), len(states), *out)
	return nil
}

// generate builds cumulative series that grow by a random daily increment,
// roughly exponential early on and flattening later.
func generate(rng *rand.Rand, days, counties int) domain.Frame {
	cols := []domain.Column{
		{Name: duckdbadapter.ColumnDate, Kind: domain.KindDate},
		{Name: duckdbadapter.ColumnState, Kind: domain.KindText},
		{Name: duckdbadapter.ColumnFIPS, Kind: domain.KindInt},
		{Name: duckdbadapter.ColumnCases, Kind: domain.KindInt},
		{Name: duckdbadapter.ColumnDeaths, Kind: domain.KindInt},
		{Name: duckdbadapter.ColumnPopulation, Kind: domain.KindInt},
	}

	for _, s := range states {
		for c := range counties {
			fips := s.fips*1000 + int64(2*c+1)
			population := int64(10_000 + rng.IntN(990_000))
			var cases, deaths int64
			for d := range days {
				growth := 1 + float64(d)/float64(days)
				cases += int64(rng.Float64() * growth * float64(population) / 5_000)
				deaths += int64(float64(cases) * 0.0005 * rng.Float64())

				row := []any{startDate.AddDate(0, 0, d), s.name, fips, cases, deaths, population}
				for i := range cols {
					cols[i].Values = append(cols[i].Values, row[i])
				}
			}
		}
	}
	return domain.Frame{Name: "observations", Columns: cols}
}
