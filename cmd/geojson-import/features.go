package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
)

const typeFeatureCollection = "FeatureCollection"

// FeatureCollection contract: each feature's geometry is a field boundary
// (Polygon) and its name comes from one string property.
type featureCollection struct {
	Type     string         `json:"type"`
	Features []featureInput `json:"features"`
}

type featureInput struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type fieldRow struct {
	Index    int
	Name     string
	Boundary json.RawMessage
	AreaM2   float64
	Err      error
}

func loadFeatures(r io.Reader) ([]featureInput, error) {
	var fc featureCollection
	dec := json.NewDecoder(r)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode GeoJSON: %w", err)
	}
	if fc.Type != typeFeatureCollection {
		return nil, fmt.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}
	return fc.Features, nil
}

// plan validates every feature the same way POST /fields does and computes a
// spherical area preview. Invalid features are kept with Err set so the
// report can list them.
func plan(features []featureInput, nameProp string, codec geometry.Codec) []fieldRow {
	rows := make([]fieldRow, 0, len(features))
	for i, f := range features {
		row := fieldRow{Index: i, Boundary: f.Geometry}

		name, _ := f.Properties[nameProp].(string)
		row.Name = strings.TrimSpace(name)
		if row.Name == "" {
			row.Err = fmt.Errorf("property %q is missing or not a string", nameProp)
			rows = append(rows, row)
			continue
		}

		poly, err := codec.RequirePolygon(f.Geometry)
		if err != nil {
			row.Err = err
			rows = append(rows, row)
			continue
		}
		row.AreaM2 = geometry.GeodesicArea(poly)
		rows = append(rows, row)
	}
	return rows
}

func countValid(rows []fieldRow) int {
	n := 0
	for _, r := range rows {
		if r.Err == nil {
			n++
		}
	}
	return n
}
