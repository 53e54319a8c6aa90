package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRegionCode is returned when state and county codes do not form an integer.
	ErrInvalidRegionCode = errors.New("invalid region code")
	// ErrUnknownRegion is returned when a metrics region has no matching geometry.
	ErrUnknownRegion = errors.New("region has no geometry")
)

// CountyGeometry is one county boundary record from the shapefile.
type CountyGeometry struct {
	FIPS       int64
	StateFP    string
	CountyFP   string
	State      string
	Attributes map[string]string // remaining shapefile fields, e.g. population
	Geometry   []byte            // WKB polygon or multipolygon
}

// CompositeFIPS concatenates the state and county codes as text and parses
// the result, e.g. "01" and "001" become 1001.
func CompositeFIPS(stateFP, countyFP string) (int64, error) {
	code := strings.TrimSpace(stateFP) + strings.TrimSpace(countyFP)
	v, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q + %q", ErrInvalidRegionCode, stateFP, countyFP)
	}
	return v, nil
}

// JoinGeometry attaches county metrics to their boundaries. The result has one
// row per region in the metrics table, in metrics order; every region must
// have geometry. Metric columns keep their stringified labels because the
// two-level keys cannot be stored as-is.
func JoinGeometry[C cmp.Ordered](name string, geoms []CountyGeometry, metrics Wide[int64, C]) (Frame, error) {
	byFIPS := make(map[int64]CountyGeometry, len(geoms))
	for _, g := range geoms {
		if _, dup := byFIPS[g.FIPS]; !dup {
			byFIPS[g.FIPS] = g
		}
	}

	rows := make([]CountyGeometry, len(metrics.Index))
	attrSet := make(map[string]struct{})
	for i, fips := range metrics.Index {
		g, ok := byFIPS[fips]
		if !ok {
			return Frame{}, fmt.Errorf("%w: %d", ErrUnknownRegion, fips)
		}
		rows[i] = g
		for k := range g.Attributes {
			attrSet[k] = struct{}{}
		}
	}

	attrs := make([]string, 0, len(attrSet))
	for k := range attrSet {
		attrs = append(attrs, k)
	}
	slices.Sort(attrs)

	n := len(rows)
	fipsCol := Column{Name: metrics.IndexName, Kind: KindInt, Values: make([]any, n)}
	stateFP := Column{Name: "STATEFP", Kind: KindText, Values: make([]any, n)}
	countyFP := Column{Name: "COUNTYFP", Kind: KindText, Values: make([]any, n)}
	state := Column{Name: "state", Kind: KindText, Values: make([]any, n)}
	geometry := Column{Name: "geometry", Kind: KindBlob, Values: make([]any, n)}
	attrCols := make([]Column, len(attrs))
	for a, col := range attributeColumnNames(attrs, fipsCol.Name, stateFP.Name, countyFP.Name, state.Name, geometry.Name) {
		attrCols[a] = Column{Name: col, Kind: KindText, Values: make([]any, n)}
	}

	for i, g := range rows {
		fipsCol.Values[i] = g.FIPS
		stateFP.Values[i] = g.StateFP
		countyFP.Values[i] = g.CountyFP
		state.Values[i] = g.State
		geometry.Values[i] = g.Geometry
		for a, k := range attrs {
			if v, ok := g.Attributes[k]; ok {
				attrCols[a].Values[i] = v
			}
		}
	}

	cols := []Column{fipsCol, stateFP, countyFP, state}
	cols = append(cols, attrCols...)
	cols = append(cols, geometry)
	cols = append(cols, metrics.Frame(name).Columns[1:]...)
	return Frame{Name: name, Columns: cols}, nil
}

// attributeColumnNames maps shapefile attribute names to output column names.
// Column names compare case-insensitively in the store, so an attribute that
// matches a fixed column or an earlier attribute under that rule gets a
// "shp_" prefix.
func attributeColumnNames(attrs []string, fixed ...string) []string {
	taken := make(map[string]struct{}, len(fixed)+len(attrs))
	for _, f := range fixed {
		taken[strings.ToLower(f)] = struct{}{}
	}

	out := make([]string, len(attrs))
	for i, k := range attrs {
		col := k
		for {
			if _, clash := taken[strings.ToLower(col)]; !clash {
				break
			}
			col = "shp_" + col
		}
		taken[strings.ToLower(col)] = struct{}{}
		out[i] = col
	}
	return out
}
