package xlsx

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

func TestWriteFrame(t *testing.T) {
	d := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	frame := domain.Frame{
		Name: "state_pivot",
		Columns: []domain.Column{
			{Name: "date", Kind: domain.KindDate, Values: []any{d, d.AddDate(0, 0, 1)}},
			{Name: "('Total Cases', 'Alabama')", Kind: domain.KindFloat, Values: []any{10.0, 12.5}},
			{Name: "('Cases per Million', 'Guam')", Kind: domain.KindFloat, Values: []any{math.NaN(), math.Inf(1)}},
		},
	}

	path := filepath.Join(t.TempDir(), "state.xlsx")
	require.NoError(t, NewWorkbook(slog.Default()).WriteFrame(context.Background(), frame, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"state_pivot"}, f.GetSheetList())

	rows, err := f.GetRows("state_pivot")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "('Total Cases', 'Alabama')", "('Cases per Million', 'Guam')"}, rows[0])
	assert.Equal(t, []string{"2020-03-01", "10"}, rows[1])
	assert.Equal(t, []string{"2020-03-02", "12.5", "inf"}, rows[2])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Equal(t, "state_pivot", sheetName("state_pivot"))
	assert.Len(t, sheetName("a_really_long_frame_name_that_excel_rejects"), maxSheetName)
}
