// Package xlsx writes frames to Excel workbooks for spreadsheet users.
package xlsx

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

const maxSheetName = 31

// Workbook writes one frame per file, on a sheet named after the frame.
type Workbook struct {
	logger *slog.Logger
}

// NewWorkbook creates a workbook writer.
func NewWorkbook(logger *slog.Logger) *Workbook {
	return &Workbook{logger: logger}
}

// WriteFrame saves the frame to path with a header row of column names.
// Dates are written as YYYY-MM-DD text and null floats as empty cells.
func (w *Workbook) WriteFrame(ctx context.Context, frame domain.Frame, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(frame.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("workbook %s: %w", path, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("workbook %s: %w", path, err)
	}

	header := make([]any, len(frame.Columns))
	for i, c := range frame.Columns {
		header[i] = c.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("workbook %s: header: %w", path, err)
	}

	for r := range frame.Len() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := frame.Row(r)
		for i, v := range row {
			row[i] = cell(v)
		}
		ref, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("workbook %s: %w", path, err)
		}
		if err := sw.SetRow(ref, row); err != nil {
			return fmt.Errorf("workbook %s: row %d: %w", path, r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("workbook %s: flush: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("workbook %s: save: %w", path, err)
	}

	w.logger.Debug("workbook written", "path", path, "sheet", sheet, "rows", frame.Len())
	return nil
}

func sheetName(name string) string {
	if name == "" {
		return "Sheet1"
	}
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func cell(v any) any {
	switch x := v.(type) {
	case float64:
		switch {
		case math.IsNaN(x):
			return nil
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		}
	case time.Time:
		return x.Format(time.DateOnly)
	case []byte:
		return hex.EncodeToString(x)
	}
	return v
}
