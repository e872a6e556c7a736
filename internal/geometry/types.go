package geometry

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON is geometry text produced by the store (ST_AsGeoJSON). It is
// embedded in API responses as a JSON object rather than a quoted string.
type GeoJSON string

// Scan implements sql.Scanner.
func (g *GeoJSON) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*g = GeoJSON(v)
	case []byte:
		*g = GeoJSON(v)
	case nil:
		return fmt.Errorf("scan GeoJSON: unexpected NULL")
	default:
		return fmt.Errorf("scan GeoJSON: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (g GeoJSON) Value() (driver.Value, error) {
	return string(g), nil
}

func (g GeoJSON) MarshalJSON() ([]byte, error) {
	if g == "" {
		return []byte("null"), nil
	}
	return []byte(g), nil
}

func (g *GeoJSON) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*g = ""
		return nil
	}
	*g = GeoJSON(b)
	return nil
}

// Geometry decodes the text back into an orb geometry.
func (g GeoJSON) Geometry() (orb.Geometry, error) {
	gj, err := geojson.UnmarshalGeometry([]byte(g))
	if err != nil {
		return nil, err
	}
	return gj.Geometry(), nil
}

// NullGeoJSON is an optional geometry. Valid is false when the row has no
// spatial footprint; that case marshals as JSON null, never as an empty
// geometry.
type NullGeoJSON struct {
	GeoJSON GeoJSON
	Valid   bool
}

// Scan implements sql.Scanner.
func (n *NullGeoJSON) Scan(src any) error {
	if src == nil {
		*n = NullGeoJSON{}
		return nil
	}
	if err := n.GeoJSON.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (n NullGeoJSON) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return string(n.GeoJSON), nil
}

func (n NullGeoJSON) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.GeoJSON.MarshalJSON()
}

func (n *NullGeoJSON) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NullGeoJSON{}
		return nil
	}
	n.GeoJSON = GeoJSON(b)
	n.Valid = true
	return nil
}

// RawOrNil returns raw unless it is absent or the JSON literal null.
func RawOrNil(raw json.RawMessage) json.RawMessage {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil
	}
	return raw
}
