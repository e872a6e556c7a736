package fields_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/apperr"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/fields"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
)

const square = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`

// fakeStore records calls instead of talking to PostGIS.
type fakeStore struct {
	inserts []spatial.Insert
	queries []spatial.Query
	nextID  int64
	rows    []fields.FieldOut
	err     error
}

func (f *fakeStore) InsertWithGeometry(_ context.Context, ins spatial.Insert) (int64, error) {
	f.inserts = append(f.inserts, ins)
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) QueryGeoJSON(_ context.Context, q spatial.Query, dest any) error {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return f.err
	}
	*dest.(*[]fields.FieldOut) = append([]fields.FieldOut(nil), f.rows...)
	return nil
}

func TestCreate_InsertsPolygon(t *testing.T) {
	store := &fakeStore{}
	repo := fields.NewRepository(store, geometry.Codec{})

	id, err := repo.Create(context.Background(), "  North 40 ", json.RawMessage(square))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}
	if len(store.inserts) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserts))
	}

	ins := store.inserts[0]
	if ins.Table != "fields" || ins.GeometryColumn != "boundary" {
		t.Errorf("unexpected target %s.%s", ins.Table, ins.GeometryColumn)
	}
	if len(ins.Values) != 1 || ins.Values[0].Column != "name" || ins.Values[0].Arg != "North 40" {
		t.Errorf("expected trimmed name value, got %+v", ins.Values)
	}
	if ins.GeoJSON == nil || !strings.Contains(*ins.GeoJSON, `"Polygon"`) {
		t.Errorf("expected polygon GeoJSON text, got %v", ins.GeoJSON)
	}
}

func TestCreate_NormalizesName(t *testing.T) {
	store := &fakeStore{}
	repo := fields.NewRepository(store, geometry.Codec{})

	if _, err := repo.Create(context.Background(), "Cafe\u0301 Lot", json.RawMessage(square)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := store.inserts[0].Values[0].Arg; got != "Caf\u00e9 Lot" {
		t.Errorf("expected NFC name, got %q", got)
	}
}

// Validation failures never reach the store.
func TestCreate_RejectsWithoutStoreCall(t *testing.T) {
	cases := map[string]struct {
		name     string
		boundary string
		field    string
	}{
		"Empty Name":       {"", square, "name"},
		"Blank Name":       {" \t ", square, "name"},
		"Missing Boundary": {"North 40", ``, "boundary"},
		"Null Boundary":    {"North 40", `null`, "boundary"},
		"Not GeoJSON":      {"North 40", `{"foo":1}`, "boundary"},
		"Open Ring":        {"North 40", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`, "boundary"},
		"Point":            {"North 40", `{"type":"Point","coordinates":[0,0]}`, "boundary"},
		"LineString":       {"North 40", `{"type":"LineString","coordinates":[[0,0],[1,1]]}`, "boundary"},
		"MultiPolygon":     {"North 40", `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`, "boundary"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := &fakeStore{}
			repo := fields.NewRepository(store, geometry.Codec{})

			_, err := repo.Create(context.Background(), tc.name, json.RawMessage(tc.boundary))
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ve.Field)
			}
			if len(store.inserts) != 0 {
				t.Errorf("expected no store call, got %d", len(store.inserts))
			}
		})
	}
}

func TestCreate_KeepsGeometryErrorKind(t *testing.T) {
	repo := fields.NewRepository(&fakeStore{}, geometry.Codec{})

	_, err := repo.Create(context.Background(), "a", json.RawMessage(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`))
	var mismatch *geometry.TypeMismatchError
	if !errors.As(err, &mismatch) || mismatch.Got != "LineString" {
		t.Errorf("expected TypeMismatchError for LineString, got %v", err)
	}

	_, err = repo.Create(context.Background(), "a", json.RawMessage(`{"type":"Polygon","coordinates":"nope"}`))
	var invalid *geometry.InvalidGeometryError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidGeometryError, got %v", err)
	}
}

func TestCreate_StoreErrorPropagates(t *testing.T) {
	cause := &spatial.StoreError{Op: "insert fields", Err: errors.New("connection reset")}
	repo := fields.NewRepository(&fakeStore{err: cause}, geometry.Codec{})

	_, err := repo.Create(context.Background(), "North 40", json.RawMessage(square))
	if !errors.Is(err, cause) {
		t.Errorf("expected store error unchanged, got %v", err)
	}
	if apperr.IsValidation(err) {
		t.Error("store error must not look like a validation error")
	}
}

func TestList_QueryShape(t *testing.T) {
	store := &fakeStore{rows: []fields.FieldOut{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}}
	repo := fields.NewRepository(store, geometry.Codec{})

	out, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 || out[0].ID != 2 {
		t.Errorf("unexpected rows: %+v", out)
	}

	q := store.queries[0]
	if q.From != "fields" || q.Limit != fields.ListLimit || q.OrderBy != "id" || !q.Desc {
		t.Errorf("unexpected query: %+v", q)
	}
	if len(q.Columns) != 5 {
		t.Errorf("expected 5 columns, got %d", len(q.Columns))
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := fields.NewRepository(&fakeStore{}, geometry.Codec{})

	out, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out == nil {
		t.Error("expected empty slice, got nil")
	}
}
