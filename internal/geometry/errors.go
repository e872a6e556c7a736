package geometry

import "fmt"

// InvalidGeometryError means the input cannot be read as any supported
// GeoJSON geometry at all.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return "invalid geometry: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidGeometryError{Reason: fmt.Sprintf(format, args...)}
}

// TypeMismatchError means the input is a well-formed geometry, just not the
// type the caller required.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("geometry type mismatch: want %s, got %s", e.Want, e.Got)
}
