// Package shapefile loads county boundary records from an ESRI shapefile.
package shapefile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
)

// Attribute names carrying the region code and state name.
const (
	FieldStateFP  = "STATEFP"
	FieldCountyFP = "COUNTYFP"
	FieldState    = "State"
)

// Reader reads county geometries.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a shapefile reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadCounties returns one record per shape in the file at path. Each record's
// FIPS code is the concatenation of its STATEFP and COUNTYFP attributes.
func (r *Reader) ReadCounties(ctx context.Context, path string) ([]domain.CountyGeometry, error) {
	f, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer f.Close()

	fields := f.Fields()
	names := make([]string, len(fields))
	index := make(map[string]int, len(fields))
	for i, fld := range fields {
		names[i] = strings.TrimRight(string(fld.Name[:]), "\x00")
		index[names[i]] = i
	}
	for _, required := range []string{FieldStateFP, FieldCountyFP, FieldState} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("shapefile %s: missing field %q", path, required)
		}
	}

	var out []domain.CountyGeometry
	for f.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, shape := f.Shape()
		g := domain.CountyGeometry{Attributes: make(map[string]string)}
		for i, name := range names {
			v := strings.Trim(f.ReadAttribute(n, i), " \x00")
			switch name {
			case FieldStateFP:
				g.StateFP = v
			case FieldCountyFP:
				g.CountyFP = v
			case FieldState:
				g.State = v
			default:
				g.Attributes[name] = v
			}
		}

		g.FIPS, err = domain.CompositeFIPS(g.StateFP, g.CountyFP)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s record %d: %w", path, n, err)
		}

		g.Geometry, err = encode(shape)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s record %d: %w", path, n, err)
		}
		out = append(out, g)
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}

	r.logger.Debug("county geometries read", "path", path, "records", len(out))
	return out, nil
}

// encode converts a shapefile polygon to WKB. Clockwise rings are outer
// boundaries; counter-clockwise rings are holes of the preceding outer ring.
func encode(shape shp.Shape) ([]byte, error) {
	poly, ok := shape.(*shp.Polygon)
	if !ok {
		return nil, fmt.Errorf("unsupported shape type %T", shape)
	}

	var polygons orb.MultiPolygon
	for _, ring := range rings(poly) {
		if ring.Orientation() == orb.CCW && len(polygons) > 0 {
			last := len(polygons) - 1
			polygons[last] = append(polygons[last], ring)
			continue
		}
		polygons = append(polygons, orb.Polygon{ring})
	}

	var geom orb.Geometry = polygons
	if len(polygons) == 1 {
		geom = polygons[0]
	}
	b, err := wkb.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return b, nil
}

func rings(p *shp.Polygon) []orb.Ring {
	out := make([]orb.Ring, 0, len(p.Parts))
	for i, start := range p.Parts {
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-int(start))
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) > 0 && !ring.Closed() {
			ring = append(ring, ring[0])
		}
		out = append(out, ring)
	}
	return out
}
