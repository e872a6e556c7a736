package observations

import (
	"encoding/json"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
)

// Observation is a georeferenced event, optionally tied to a field. FieldID
// is not a foreign key; see ReferentialMode for how it is checked.
type Observation struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	FieldID    *int64    `gorm:"index" json:"field_id"`
	ObservedAt time.Time `gorm:"type:timestamptz;not null;default:now()" json:"observed_at"`
	Kind       string    `gorm:"type:text;not null" json:"kind"`
	Geom       *string   `gorm:"type:geometry(Geometry,4326)" json:"-"`
	AccuracyM  *float64  `gorm:"type:double precision" json:"accuracy_m"`
	Payload    Payload   `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
}

func (Observation) TableName() string {
	return "observations"
}

// NewObservation is the POST /observations body.
type NewObservation struct {
	Kind      string          `json:"kind"`
	FieldID   *int64          `json:"field_id"`
	Geom      json.RawMessage `json:"geom"`
	AccuracyM *float64        `json:"accuracy_m"`
	Payload   json.RawMessage `json:"payload"`
}

type ObservationOut struct {
	ID         int64                `gorm:"column:id" json:"id"`
	FieldID    *int64               `gorm:"column:field_id" json:"field_id"`
	ObservedAt time.Time            `gorm:"column:observed_at" json:"observed_at"`
	Kind       string               `gorm:"column:kind" json:"kind"`
	Geom       geometry.NullGeoJSON `gorm:"column:geom" json:"geom"`
	AccuracyM  *float64             `gorm:"column:accuracy_m" json:"accuracy_m"`
	Payload    Payload              `gorm:"column:payload" json:"payload"`
}
