package fields

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/apperr"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"golang.org/x/text/unicode/norm"
)

// ListLimit caps GET /fields.
const ListLimit = 100

// Store is the part of the spatial gateway the repository uses.
type Store interface {
	InsertWithGeometry(ctx context.Context, ins spatial.Insert) (int64, error)
	QueryGeoJSON(ctx context.Context, q spatial.Query, dest any) error
}

type Repository struct {
	store Store
	codec geometry.Codec
}

func NewRepository(store Store, codec geometry.Codec) *Repository {
	return &Repository{store: store, codec: codec}
}

// Create validates name and boundary and inserts one field. Nothing reaches
// the store unless both are valid.
func (r *Repository) Create(ctx context.Context, name string, boundary json.RawMessage) (int64, error) {
	name = normalizeName(name)
	if name == "" {
		return 0, apperr.Invalid("name", "is required")
	}

	raw := geometry.RawOrNil(boundary)
	if raw == nil {
		return 0, apperr.Invalid("boundary", "is required")
	}
	poly, err := r.codec.RequirePolygon(raw)
	if err != nil {
		var mismatch *geometry.TypeMismatchError
		if errors.As(err, &mismatch) {
			return 0, apperr.InvalidWrap("boundary", "must be a GeoJSON Polygon", err)
		}
		return 0, apperr.InvalidWrap("boundary", "is not valid GeoJSON geometry", err)
	}

	text, err := r.codec.Serialize(poly)
	if err != nil {
		return 0, fmt.Errorf("serialize boundary: %w", err)
	}

	return r.store.InsertWithGeometry(ctx, spatial.Insert{
		Table:          Field{}.TableName(),
		Values:         []spatial.Value{{Column: "name", Arg: name}},
		GeometryColumn: "boundary",
		GeoJSON:        &text,
	})
}

// List returns up to ListLimit fields, newest first.
func (r *Repository) List(ctx context.Context) ([]FieldOut, error) {
	out := make([]FieldOut, 0)
	err := r.store.QueryGeoJSON(ctx, spatial.Query{
		Columns: []spatial.Column{
			spatial.Col("id"),
			spatial.Col("name"),
			spatial.GeoJSONCol("boundary"),
			spatial.GeodeticArea("boundary", "area_m2"),
			spatial.Col("created_at"),
		},
		From:    Field{}.TableName(),
		OrderBy: "id",
		Desc:    true,
		Limit:   ListLimit,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []FieldOut{}
	}
	return out, nil
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
