package shapefile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type county struct {
	stateFP, countyFP, state, pop string
	parts                         [][]shp.Point
}

// square returns a clockwise square, which shapefiles treat as an outer ring.
func square(x, y, size float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + size}, {X: x + size, Y: y + size}, {X: x + size, Y: y}, {X: x, Y: y}}
}

func writeShapefile(t *testing.T, counties []county) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counties.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField(FieldStateFP, 2),
		shp.StringField(FieldCountyFP, 3),
		shp.StringField(FieldState, 24),
		shp.StringField("POP", 10),
	}))
	for _, c := range counties {
		poly := shp.Polygon(*shp.NewPolyLine(c.parts))
		n := int(w.Write(&poly))
		require.NoError(t, w.WriteAttribute(n, 0, c.stateFP))
		require.NoError(t, w.WriteAttribute(n, 1, c.countyFP))
		require.NoError(t, w.WriteAttribute(n, 2, c.state))
		require.NoError(t, w.WriteAttribute(n, 3, c.pop))
	}
	w.Close()

	// The writer names the attribute table "<base>dbf"; the reader expects "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	return path
}

func TestReadCounties(t *testing.T) {
	path := writeShapefile(t, []county{
		{"01", "001", "Alabama", "55869", [][]shp.Point{square(0, 0, 1)}},
		{"56", "045", "Wyoming", "6927", [][]shp.Point{square(10, 10, 2), square(20, 20, 1)}},
	})

	got, err := NewReader(slog.Default()).ReadCounties(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1001), got[0].FIPS)
	assert.Equal(t, "01", got[0].StateFP)
	assert.Equal(t, "001", got[0].CountyFP)
	assert.Equal(t, "Alabama", got[0].State)
	assert.Equal(t, map[string]string{"POP": "55869"}, got[0].Attributes)

	g, err := wkb.Unmarshal(got[0].Geometry)
	require.NoError(t, err)
	poly, ok := g.(orb.Polygon)
	require.True(t, ok, "want polygon, got %T", g)
	assert.Len(t, poly[0], 5)

	assert.Equal(t, int64(56045), got[1].FIPS)
	assert.Equal(t, "Wyoming", got[1].State, "fixed-width padding is trimmed")
	assert.Equal(t, map[string]string{"POP": "6927"}, got[1].Attributes)
	g, err = wkb.Unmarshal(got[1].Geometry)
	require.NoError(t, err)
	multi, ok := g.(orb.MultiPolygon)
	require.True(t, ok, "want multipolygon, got %T", g)
	assert.Len(t, multi, 2)
}

func TestReadCounties_HoleJoinsOuterRing(t *testing.T) {
	outer := square(0, 0, 10)
	hole := []shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	path := writeShapefile(t, []county{{"01", "003", "Alabama", "1", [][]shp.Point{outer, hole}}})

	got, err := NewReader(slog.Default()).ReadCounties(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)

	g, err := wkb.Unmarshal(got[0].Geometry)
	require.NoError(t, err)
	poly, ok := g.(orb.Polygon)
	require.True(t, ok, "want polygon, got %T", g)
	assert.Len(t, poly, 2)
}

func TestReadCounties_InvalidCode(t *testing.T) {
	path := writeShapefile(t, []county{{"XX", "001", "Nowhere", "0", [][]shp.Point{square(0, 0, 1)}}})

	_, err := NewReader(slog.Default()).ReadCounties(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid region code")
}

func TestReadCounties_TruncatedFile(t *testing.T) {
	path := writeShapefile(t, []county{
		{"01", "001", "Alabama", "1", [][]shp.Point{square(0, 0, 1)}},
		{"01", "003", "Alabama", "2", [][]shp.Point{square(2, 2, 1)}},
	})

	// 100-byte file header, one 136-byte square record, then the first 20
	// bytes of the second record.
	require.NoError(t, os.Truncate(path, 100+136+20))

	_, err := NewReader(slog.Default()).ReadCounties(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read shapefile")
}

func TestReadCounties_MissingFile(t *testing.T) {
	_, err := NewReader(slog.Default()).ReadCounties(context.Background(), filepath.Join(t.TempDir(), "none.shp"))
	require.Error(t, err)
}
