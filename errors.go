package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a select, patch or delete matched no row
	ErrNotFound = errors.New("storage: no results found")

	// ErrAlreadyExists is returned when an insert violates a unique constraint
	ErrAlreadyExists = errors.New("storage: row already exists")

	// ErrUnknownField is returned when a patch names a column the table's struct doesn't have
	ErrUnknownField = errors.New("storage: unknown field")

	// ErrNotConfigured is returned when a struct or query name was never registered with New
	ErrNotConfigured = errors.New("storage: not configured; have you configured storage properly?")
)

// pq's code for unique_violation
const pqUniqueViolation = "23505"

// translateDBError maps driver errors onto the package's sentinels
func translateDBError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, pqErr.Detail)
	}
	return err
}
