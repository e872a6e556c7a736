package observations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/apperr"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"golang.org/x/text/unicode/norm"
)

// ListLimit caps GET /observations.
const ListLimit = 200

const fieldsTable = "fields"

type Store interface {
	InsertWithOptionalGeometry(ctx context.Context, ins spatial.Insert) (int64, error)
	QueryGeoJSON(ctx context.Context, q spatial.Query, dest any) error
}

// Repository creates and lists observations. With Strict set, a field_id
// must name an existing field at insert time; otherwise it is stored as
// given.
type Repository struct {
	store  Store
	codec  geometry.Codec
	strict bool
}

type Option func(*Repository)

// Strict turns on the field_id existence check.
func Strict(on bool) Option { return func(r *Repository) { r.strict = on } }

func NewRepository(store Store, codec geometry.Codec, opts ...Option) *Repository {
	r := &Repository{store: store, codec: codec}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create validates in and inserts one observation. The geometry, when
// present, may be any supported type.
func (r *Repository) Create(ctx context.Context, in NewObservation) (int64, error) {
	kind := norm.NFC.String(strings.TrimSpace(in.Kind))
	if kind == "" {
		return 0, apperr.Invalid("kind", "is required")
	}

	var geoText *string
	if raw := geometry.RawOrNil(in.Geom); raw != nil {
		g, err := r.codec.Parse(raw)
		if err != nil {
			return 0, apperr.InvalidWrap("geom", "is not valid GeoJSON geometry", err)
		}
		text, err := r.codec.Serialize(g)
		if err != nil {
			return 0, fmt.Errorf("serialize geom: %w", err)
		}
		geoText = &text
	}

	if a := in.AccuracyM; a != nil && (math.IsNaN(*a) || math.IsInf(*a, 0) || *a < 0) {
		return 0, apperr.Invalid("accuracy_m", "must be a finite number >= 0")
	}

	payload, err := ParsePayload(in.Payload)
	if err != nil {
		return 0, err
	}

	var fieldID, accuracy any
	if in.FieldID != nil {
		fieldID = *in.FieldID
	}
	if in.AccuracyM != nil {
		accuracy = *in.AccuracyM
	}

	ins := spatial.Insert{
		Table: Observation{}.TableName(),
		Values: []spatial.Value{
			{Column: "field_id", Arg: fieldID, Cast: "bigint"},
			{Column: "kind", Arg: kind},
			{Column: "accuracy_m", Arg: accuracy, Cast: "double precision"},
			{Column: "payload", Arg: string(payload), Cast: "jsonb"},
		},
		GeometryColumn: "geom",
		GeoJSON:        geoText,
	}
	if r.strict && in.FieldID != nil {
		ins.Requires = &spatial.Reference{Table: fieldsTable, Column: "id", ID: *in.FieldID}
	}

	id, err := r.store.InsertWithOptionalGeometry(ctx, ins)
	if err != nil && r.strict && errors.Is(err, spatial.ErrReferenceNotFound) {
		return 0, apperr.InvalidWrap("field_id", "does not reference an existing field", err)
	}
	return id, err
}

// List returns up to ListLimit observations, newest first. Observations
// without geometry come back with an invalid (null) Geom.
func (r *Repository) List(ctx context.Context) ([]ObservationOut, error) {
	out := make([]ObservationOut, 0)
	err := r.store.QueryGeoJSON(ctx, spatial.Query{
		Columns: []spatial.Column{
			spatial.Col("id"),
			spatial.Col("field_id"),
			spatial.Col("observed_at"),
			spatial.Col("kind"),
			spatial.GeoJSONCol("geom"),
			spatial.Col("accuracy_m"),
			spatial.Col("payload"),
		},
		From:    Observation{}.TableName(),
		OrderBy: "id",
		Desc:    true,
		Limit:   ListLimit,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ObservationOut{}
	}
	return out, nil
}
