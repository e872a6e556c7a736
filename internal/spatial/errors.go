package spatial

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReferenceNotFound is returned when an insert names a parent row that
// does not exist, either from the in-transaction reference check or from a
// foreign-key constraint in the schema.
var ErrReferenceNotFound = errors.New("referenced row not found")

// Postgres SQLSTATE codes the gateway distinguishes.
const (
	codeForeignKeyViolation = "23503"
	codeInvalidParameter    = "22023"
)

// StoreError wraps every failure that comes out of the gateway. Op names the
// gateway operation; Err keeps the driver error reachable for errors.As.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err carries a StoreError anywhere in its chain.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: classify(err)}
}

// classify attaches ErrReferenceNotFound to foreign-key violations so callers
// don't need to know SQLSTATE codes.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrReferenceNotFound, pgErr.Detail)
	case codeInvalidParameter:
		return fmt.Errorf("invalid parameter (%s): %w", pgErr.Message, err)
	}
	return err
}
