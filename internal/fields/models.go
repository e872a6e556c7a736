package fields

import (
	"encoding/json"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
)

// Field is a named land parcel. The boundary is always a single Polygon in
// WGS84; rows are append-only.
type Field struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Boundary  string    `gorm:"type:geometry(Polygon,4326);not null" json:"-"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
}

func (Field) TableName() string {
	return "fields"
}

// FieldOut is the read shape of a field. AreaM2 is geodetic, computed by the
// store on the ellipsoid.
type FieldOut struct {
	ID        int64            `gorm:"column:id" json:"id"`
	Name      string           `gorm:"column:name" json:"name"`
	Boundary  geometry.GeoJSON `gorm:"column:boundary" json:"boundary"`
	AreaM2    float64          `gorm:"column:area_m2" json:"area_m2"`
	CreatedAt time.Time        `gorm:"column:created_at" json:"created_at"`
}

type CreateFieldInput struct {
	Name     string          `json:"name"`
	Boundary json.RawMessage `json:"boundary"`
}
