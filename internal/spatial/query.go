package spatial

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// DefaultSRID is WGS84 longitude/latitude. Every geometry this service stores
// is tagged with it.
const DefaultSRID = 4326

// geoJSONDigits keeps full float64 precision when converting back to text.
const geoJSONDigits = 15

// Value is one non-geometry column of an insert. Cast, when set, is appended
// to the placeholder (e.g. "jsonb" renders "?::jsonb").
type Value struct {
	Column string
	Arg    any
	Cast   string
}

// Reference asks the gateway to confirm that Table.Column = ID exists inside
// the insert transaction. A nil ID skips the check.
type Reference struct {
	Table  string
	Column string
	ID     any
}

// Insert describes a single-row insert with one geometry column.
type Insert struct {
	Table          string
	Values         []Value
	GeometryColumn string
	// GeoJSON is the geometry text. Nil means "no geometry" and is only
	// accepted by InsertWithOptionalGeometry.
	GeoJSON *string
	// SRID overrides the gateway default when non-zero.
	SRID     int
	Requires *Reference
}

type columnKind int

const (
	plainColumn columnKind = iota
	geoJSONColumn
	areaColumn
)

// Column is one entry of a select list.
type Column struct {
	Name  string
	Alias string
	kind  columnKind
}

// Col selects a plain column.
func Col(name string) Column { return Column{Name: name} }

// GeoJSONCol selects a geometry column converted to GeoJSON text by the
// store. NULL geometries stay NULL.
func GeoJSONCol(name string) Column {
	return Column{Name: name, Alias: name, kind: geoJSONColumn}
}

// GeodeticArea selects the area of a geometry column in square meters,
// computed on the WGS84 ellipsoid through a geography cast.
func GeodeticArea(name, alias string) Column {
	return Column{Name: name, Alias: alias, kind: areaColumn}
}

// Query is a bounded, ordered read of one table.
type Query struct {
	Columns []Column
	From    string
	OrderBy string
	Desc    bool
	Limit   int
}

func quote(ident string) string { return pq.QuoteIdentifier(ident) }

func (c Column) sql() string {
	var expr string
	switch c.kind {
	case geoJSONColumn:
		expr = fmt.Sprintf("ST_AsGeoJSON(%s, %d)", quote(c.Name), geoJSONDigits)
	case areaColumn:
		expr = fmt.Sprintf("ST_Area(%s::geography)", quote(c.Name))
	default:
		expr = quote(c.Name)
	}
	if c.Alias != "" && (c.kind != plainColumn || c.Alias != c.Name) {
		expr += " AS " + quote(c.Alias)
	}
	return expr
}

func buildSelect(q Query) (string, error) {
	if q.From == "" || len(q.Columns) == 0 {
		return "", fmt.Errorf("select needs a table and at least one column")
	}
	if q.Limit <= 0 {
		return "", fmt.Errorf("select limit must be positive, got %d", q.Limit)
	}

	cols := make([]string, 0, len(q.Columns))
	for _, c := range q.Columns {
		cols = append(cols, c.sql())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), quote(q.From))
	if q.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", quote(q.OrderBy))
		if q.Desc {
			b.WriteString(" DESC")
		}
	}
	fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	return b.String(), nil
}

// buildInsert renders the INSERT .. RETURNING id statement and its bound
// arguments. A nil GeoJSON writes NULL without calling ST_GeomFromGeoJSON.
func buildInsert(ins Insert, srid int) (string, []any, error) {
	if ins.Table == "" || ins.GeometryColumn == "" {
		return "", nil, fmt.Errorf("insert needs a table and a geometry column")
	}
	if srid <= 0 {
		return "", nil, fmt.Errorf("malformed SRID %d", srid)
	}

	cols := make([]string, 0, len(ins.Values)+1)
	marks := make([]string, 0, len(ins.Values)+1)
	args := make([]any, 0, len(ins.Values)+2)
	for _, v := range ins.Values {
		if v.Column == "" {
			return "", nil, fmt.Errorf("insert value without a column name")
		}
		cols = append(cols, quote(v.Column))
		mark := "?"
		if v.Cast != "" {
			mark += "::" + v.Cast
		}
		marks = append(marks, mark)
		args = append(args, v.Arg)
	}

	cols = append(cols, quote(ins.GeometryColumn))
	if ins.GeoJSON == nil {
		marks = append(marks, "NULL")
	} else {
		marks = append(marks, "ST_SetSRID(ST_GeomFromGeoJSON(?::text), ?::integer)")
		args = append(args, *ins.GeoJSON, srid)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quote(ins.Table), strings.Join(cols, ", "), strings.Join(marks, ", "), quote("id"))
	return stmt, args, nil
}

func buildExists(ref Reference) string {
	col := ref.Column
	if col == "" {
		col = "id"
	}
	return fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? FOR KEY SHARE", quote(ref.Table), quote(col))
}
