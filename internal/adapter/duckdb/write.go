package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

// WriteFrame stages the frame in a scratch table with the DuckDB Appender and
// copies it to a compressed Parquet file at path, replacing any existing file.
// A failure mid-write may leave a partial or absent file.
func (s *Store) WriteFrame(ctx context.Context, frame domain.Frame, path string) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("write %s: get connection: %w", frame.Name, err)
	}
	defer conn.Close()

	table := "frame_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := conn.ExecContext(ctx, createTable(table, frame.Columns)); err != nil {
		return fmt.Errorf("write %s: create table: %w", frame.Name, err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+ident(table)); err != nil {
			s.logger.Warn("drop scratch table", "table", table, "error", err)
		}
	}()

	if err := appendRows(ctx, conn, table, frame); err != nil {
		return fmt.Errorf("write %s: %w", frame.Name, err)
	}

	copyStmt := fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET, COMPRESSION %s)",
		ident(table), literal(path), s.compression)
	if _, err := conn.ExecContext(ctx, copyStmt); err != nil {
		return fmt.Errorf("write %s: copy to %s: %w", frame.Name, path, err)
	}

	s.logger.Debug("frame written",
		"name", frame.Name,
		"path", path,
		"rows", frame.Len(),
		"columns", len(frame.Columns),
	)
	return nil
}

func appendRows(ctx context.Context, conn *sql.Conn, table string, frame domain.Frame) error {
	var appender *duckdb.Appender
	err := conn.Raw(func(driverConn any) error {
		duckConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("unexpected connection type: %T", driverConn)
		}
		var appErr error
		appender, appErr = duckdb.NewAppenderFromConn(duckConn, "", table)
		return appErr
	})
	if err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	row := make([]driver.Value, len(frame.Columns))
	for i := range frame.Len() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				appender.Close()
				return err
			}
		}
		for c, col := range frame.Columns {
			row[c] = value(col.Values[i])
		}
		if err := appender.AppendRow(row...); err != nil {
			appender.Close()
			return fmt.Errorf("append row %d: %w", i, err)
		}
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}
	return nil
}

func createTable(table string, cols []domain.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = ident(c.Name) + " " + sqlType(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident(table), strings.Join(defs, ", "))
}

func sqlType(k domain.ColumnKind) string {
	switch k {
	case domain.KindInt:
		return "BIGINT"
	case domain.KindText:
		return "VARCHAR"
	case domain.KindDate:
		return "DATE"
	case domain.KindBlob:
		return "BLOB"
	default:
		return "DOUBLE"
	}
}

func value(v any) driver.Value {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return v
}
