package spatial

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestBuildInsert_WithGeometry(t *testing.T) {
	stmt, args, err := buildInsert(Insert{
		Table:          "fields",
		Values:         []Value{{Column: "name", Arg: "North 40"}},
		GeometryColumn: "boundary",
		GeoJSON:        strPtr(`{"type":"Polygon","coordinates":[]}`),
	}, DefaultSRID)
	if err != nil {
		t.Fatalf("buildInsert: %v", err)
	}

	want := `INSERT INTO "fields" ("name", "boundary") VALUES (?, ST_SetSRID(ST_GeomFromGeoJSON(?::text), ?::integer)) RETURNING "id"`
	if stmt != want {
		t.Errorf("unexpected statement:\n got: %s\nwant: %s", stmt, want)
	}
	if len(args) != 3 || args[0] != "North 40" || args[2] != 4326 {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildInsert_NullGeometry(t *testing.T) {
	stmt, args, err := buildInsert(Insert{
		Table: "observations",
		Values: []Value{
			{Column: "field_id", Arg: nil},
			{Column: "kind", Arg: "soil_sample"},
			{Column: "payload", Arg: `{}`, Cast: "jsonb"},
		},
		GeometryColumn: "geom",
	}, DefaultSRID)
	if err != nil {
		t.Fatalf("buildInsert: %v", err)
	}

	if strings.Contains(stmt, "ST_GeomFromGeoJSON") {
		t.Errorf("absent geometry must not be converted: %s", stmt)
	}
	if !strings.Contains(stmt, "VALUES (?, ?, ?::jsonb, NULL)") {
		t.Errorf("expected NULL geometry placeholder, got %s", stmt)
	}
	if len(args) != 3 {
		t.Errorf("expected 3 args, got %d", len(args))
	}
}

func TestBuildInsert_Rejects(t *testing.T) {
	geo := strPtr(`{}`)
	cases := map[string]struct {
		ins  Insert
		srid int
	}{
		"No Table":        {Insert{GeometryColumn: "g", GeoJSON: geo}, 4326},
		"No Geometry Col": {Insert{Table: "t", GeoJSON: geo}, 4326},
		"Zero SRID":       {Insert{Table: "t", GeometryColumn: "g", GeoJSON: geo}, 0},
		"Negative SRID":   {Insert{Table: "t", GeometryColumn: "g", GeoJSON: geo}, -1},
		"Unnamed Column":  {Insert{Table: "t", GeometryColumn: "g", Values: []Value{{Arg: 1}}}, 4326},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := buildInsert(tc.ins, tc.srid); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildInsert_QuotesIdentifiers(t *testing.T) {
	stmt, _, err := buildInsert(Insert{
		Table:          `odd"name`,
		GeometryColumn: "geom",
	}, DefaultSRID)
	if err != nil {
		t.Fatalf("buildInsert: %v", err)
	}
	if !strings.Contains(stmt, `"odd""name"`) {
		t.Errorf("identifier not escaped: %s", stmt)
	}
}

func TestBuildSelect(t *testing.T) {
	stmt, err := buildSelect(Query{
		Columns: []Column{
			Col("id"),
			Col("name"),
			GeoJSONCol("boundary"),
			GeodeticArea("boundary", "area_m2"),
			Col("created_at"),
		},
		From:    "fields",
		OrderBy: "id",
		Desc:    true,
		Limit:   100,
	})
	if err != nil {
		t.Fatalf("buildSelect: %v", err)
	}

	want := `SELECT "id", "name", ST_AsGeoJSON("boundary", 15) AS "boundary", ` +
		`ST_Area("boundary"::geography) AS "area_m2", "created_at" ` +
		`FROM "fields" ORDER BY "id" DESC LIMIT 100`
	if stmt != want {
		t.Errorf("unexpected statement:\n got: %s\nwant: %s", stmt, want)
	}
}

func TestBuildSelect_Rejects(t *testing.T) {
	if _, err := buildSelect(Query{Columns: []Column{Col("id")}, From: "fields"}); err == nil {
		t.Error("zero limit should be rejected")
	}
	if _, err := buildSelect(Query{From: "fields", Limit: 1}); err == nil {
		t.Error("empty column list should be rejected")
	}
}

func TestBuildExists(t *testing.T) {
	got := buildExists(Reference{Table: "fields", ID: 3})
	want := `SELECT 1 FROM "fields" WHERE "id" = ? FOR KEY SHARE`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
