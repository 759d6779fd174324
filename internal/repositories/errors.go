package repositories

import "errors"

// Sentinel errors shared by every store implementation. Callers match them
// with errors.Is; implementations wrap them with context via fmt.Errorf.
var (
	// ErrNotFound is returned when a lookup by primary key has no match.
	ErrNotFound = errors.New("record not found")

	// ErrIntegrity is returned when a product would reference a user that
	// does not exist. The whole request's unit of work is rolled back.
	ErrIntegrity = errors.New("referential integrity violation")
)
