package observations

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/apperr"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
)

var emptyObject = []byte("{}")

// Payload is the free-form attribute object of an observation. Its contents
// are stored and returned as given; only the top level must be an object.
type Payload json.RawMessage

// ParsePayload accepts a JSON object, or nothing. Absent and null both mean {}.
func ParsePayload(raw json.RawMessage) (Payload, error) {
	raw = geometry.RawOrNil(raw)
	if raw == nil {
		return Payload(emptyObject), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperr.Invalid("payload", "must be a JSON object")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, apperr.InvalidWrap("payload", "is not valid JSON", err)
	}
	return Payload(buf.Bytes()), nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return emptyObject, nil
	}
	return []byte(p), nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	*p = append((*p)[:0], b...)
	return nil
}

// Scan implements sql.Scanner for jsonb columns.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		*p = append(Payload(nil), v...)
	case string:
		*p = Payload(v)
	case nil:
		*p = Payload(emptyObject)
	default:
		return fmt.Errorf("scan payload: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return string(emptyObject), nil
	}
	return string(p), nil
}
