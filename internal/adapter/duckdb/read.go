package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

// ErrMissingColumn is returned when the input table lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Input column names.
const (
	ColumnDate       = "date"
	ColumnState      = "state"
	ColumnFIPS       = "fips_code"
	ColumnCases      = "Total Cases"
	ColumnDeaths     = "Total Deaths"
	ColumnPopulation = "total_population"
)

var requiredColumns = []string{ColumnCases, ColumnDeaths, ColumnPopulation, ColumnState, ColumnDate}

// ReadObservations loads the observation table from a Parquet file. withFIPS makes
// the fips_code column required; otherwise it is read when present.
// Null counts are read as zero and rows without a date are dropped.
func (s *Store) ReadObservations(ctx context.Context, path string, withFIPS bool) ([]domain.Observation, error) {
	cols, err := s.columns(ctx, path)
	if err != nil {
		return nil, err
	}

	required := requiredColumns
	if withFIPS {
		required = append(slices.Clone(required), ColumnFIPS)
	}
	for _, name := range required {
		if !slices.Contains(cols, name) {
			return nil, fmt.Errorf("read %s: %w %q", path, ErrMissingColumn, name)
		}
	}

	fips := "CAST(NULL AS BIGINT)"
	if slices.Contains(cols, ColumnFIPS) {
		fips = "TRY_CAST(" + ident(ColumnFIPS) + " AS BIGINT)"
	}

	query := fmt.Sprintf(`SELECT
		CAST(%s AS DATE),
		CAST(%s AS VARCHAR),
		%s,
		CAST(COALESCE(%s, 0) AS BIGINT),
		CAST(COALESCE(%s, 0) AS BIGINT),
		CAST(COALESCE(%s, 0) AS BIGINT)
	FROM read_parquet(%s)
	WHERE %s IS NOT NULL`,
		ident(ColumnDate), ident(ColumnState), fips,
		ident(ColumnCases), ident(ColumnDeaths), ident(ColumnPopulation),
		literal(path), ident(ColumnDate))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var (
			date  time.Time
			state sql.NullString
			code  sql.NullInt64
			o     domain.Observation
		)
		if err := rows.Scan(&date, &state, &code, &o.TotalCases, &o.TotalDeaths, &o.Population); err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		o.Date = domain.DayOf(date)
		o.State = state.String
		o.FIPS = code.Int64
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	s.logger.Debug("observations read", "path", path, "rows", len(out))
	return out, nil
}

// ReadFrame loads a whole Parquet file into a frame. Null floats come back as NaN.
func (s *Store) ReadFrame(ctx context.Context, path string) (domain.Frame, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM read_parquet("+literal(path)+")")
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}

	frame := domain.Frame{Columns: make([]domain.Column, len(types))}
	for i, t := range types {
		frame.Columns[i] = domain.Column{Name: t.Name(), Kind: kindOf(t.DatabaseTypeName())}
	}

	dest := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return domain.Frame{}, fmt.Errorf("scan %s: %w", path, err)
		}
		for i, v := range dest {
			col := &frame.Columns[i]
			col.Values = append(col.Values, normalize(col.Kind, v))
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	return frame, nil
}

func (s *Store) columns(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM read_parquet("+literal(path)+") LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cols, nil
}

func kindOf(dbType string) domain.ColumnKind {
	switch t := strings.ToUpper(dbType); {
	case t == "DATE" || strings.HasPrefix(t, "TIMESTAMP"):
		return domain.KindDate
	case t == "BLOB":
		return domain.KindBlob
	case t == "VARCHAR":
		return domain.KindText
	case t == "DOUBLE" || t == "FLOAT":
		return domain.KindFloat
	default:
		return domain.KindInt
	}
}

func normalize(kind domain.ColumnKind, v any) any {
	switch kind {
	case domain.KindFloat:
		switch x := v.(type) {
		case nil:
			return math.NaN()
		case float32:
			return float64(x)
		}
	case domain.KindInt:
		switch x := v.(type) {
		case int32:
			return int64(x)
		case int16:
			return int64(x)
		case int8:
			return int64(x)
		}
	case domain.KindDate:
		if t, ok := v.(time.Time); ok {
			return t.UTC()
		}
	}
	return v
}
