// Package geometry reads and writes the GeoJSON geometries accepted by the
// field and observation stores. It validates structure only; it knows nothing
// about coordinate reference systems, which are stamped at the store boundary.
package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// positionDepth is the number of array levels wrapping a single position in
// the "coordinates" member of each supported geometry type.
var positionDepth = map[string]int{
	geojson.TypePoint:           0,
	geojson.TypeMultiPoint:      1,
	geojson.TypeLineString:      1,
	geojson.TypeMultiLineString: 2,
	geojson.TypePolygon:         2,
	geojson.TypeMultiPolygon:    3,
}

// Codec parses and serializes GeoJSON geometries. The zero value accepts any
// numeric coordinates; CheckRange additionally rejects positions outside
// longitude [-180,180] / latitude [-90,90].
type Codec struct {
	CheckRange bool
}

// Parse decodes raw GeoJSON into a geometry and checks that it is well formed:
// a known type, the right coordinate nesting, 2 or 3 numeric ordinates per
// position, at least two positions per line and closed rings of at least four
// positions. A Z ordinate is accepted and dropped.
func (c Codec) Parse(raw []byte) (orb.Geometry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, invalidf("geometry is empty")
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, invalidf("not a JSON object")
	}

	var typ string
	if err := json.Unmarshal(members["type"], &typ); err != nil || typ == "" {
		return nil, invalidf("missing or non-string \"type\"")
	}
	depth, ok := positionDepth[typ]
	if !ok {
		return nil, invalidf("unsupported type %q", typ)
	}

	coords, ok := members["coordinates"]
	if !ok {
		return nil, invalidf("%s has no \"coordinates\"", typ)
	}
	var tree any
	if err := json.Unmarshal(coords, &tree); err != nil {
		return nil, invalidf("coordinates: %v", err)
	}
	if err := checkNesting(tree, depth, "coordinates"); err != nil {
		return nil, err
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	geom := g.Geometry()
	if geom == nil {
		return nil, invalidf("%s decoded to nothing", typ)
	}

	if err := checkShape(geom); err != nil {
		return nil, err
	}
	if c.CheckRange {
		if err := checkRange(geom); err != nil {
			return nil, err
		}
	}
	return geom, nil
}

// RequirePolygon parses raw and fails with a TypeMismatchError unless the
// result is exactly a Polygon. Holes are allowed.
func (c Codec) RequirePolygon(raw []byte) (orb.Polygon, error) {
	g, err := c.Parse(raw)
	if err != nil {
		return nil, err
	}
	p, ok := g.(orb.Polygon)
	if !ok {
		return nil, &TypeMismatchError{Want: geojson.TypePolygon, Got: g.GeoJSONType()}
	}
	return p, nil
}

// Serialize renders g as canonical GeoJSON text, without crs or bbox members.
func (c Codec) Serialize(g orb.Geometry) (string, error) {
	if g == nil {
		return "", invalidf("cannot serialize a nil geometry")
	}
	b, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", g.GeoJSONType(), err)
	}
	return string(b), nil
}

func checkNesting(v any, depth int, path string) error {
	arr, ok := v.([]any)
	if !ok {
		return invalidf("%s: expected an array", path)
	}
	if depth == 0 {
		if len(arr) < 2 || len(arr) > 3 {
			return invalidf("%s: position has %d ordinates, want 2 or 3", path, len(arr))
		}
		for i, o := range arr {
			if _, ok := o.(float64); !ok {
				return invalidf("%s[%d]: ordinate is not a number", path, i)
			}
		}
		return nil
	}
	for i, child := range arr {
		if err := checkNesting(child, depth-1, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func checkShape(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Point:
		return nil
	case orb.MultiPoint:
		if len(g) == 0 {
			return invalidf("MultiPoint has no points")
		}
	case orb.LineString:
		return checkLine(g, "LineString")
	case orb.MultiLineString:
		if len(g) == 0 {
			return invalidf("MultiLineString has no lines")
		}
		for i, ls := range g {
			if err := checkLine(ls, fmt.Sprintf("MultiLineString[%d]", i)); err != nil {
				return err
			}
		}
	case orb.Polygon:
		return checkPolygon(g, "Polygon")
	case orb.MultiPolygon:
		if len(g) == 0 {
			return invalidf("MultiPolygon has no polygons")
		}
		for i, p := range g {
			if err := checkPolygon(p, fmt.Sprintf("MultiPolygon[%d]", i)); err != nil {
				return err
			}
		}
	default:
		return invalidf("unsupported geometry %s", g.GeoJSONType())
	}
	return nil
}

func checkLine(ls orb.LineString, name string) error {
	if len(ls) < 2 {
		return invalidf("%s needs at least 2 positions, has %d", name, len(ls))
	}
	return nil
}

func checkPolygon(p orb.Polygon, name string) error {
	if len(p) == 0 {
		return invalidf("%s has no rings", name)
	}
	for i, r := range p {
		if len(r) < 4 {
			return invalidf("%s ring %d needs at least 4 positions, has %d", name, i, len(r))
		}
		if !r.Closed() {
			return invalidf("%s ring %d is not closed", name, i)
		}
	}
	return nil
}

func checkRange(g orb.Geometry) error {
	b := g.Bound()
	if b.Min.Lon() < -180 || b.Max.Lon() > 180 {
		return invalidf("longitude outside [-180, 180]")
	}
	if b.Min.Lat() < -90 || b.Max.Lat() > 90 {
		return invalidf("latitude outside [-90, 90]")
	}
	return nil
}
