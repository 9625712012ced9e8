package db

import "github.com/lib/pq"

const (
	DuplicateEntry pq.ErrorCode = "23505"
	EntryTooLong   pq.ErrorCode = "22001"
	CheckViolation pq.ErrorCode = "23514"
)

// IsDuplicate reports whether err is a unique-constraint violation,
// which is how idempotency-reference collisions surface from postgres.
func IsDuplicate(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == DuplicateEntry
	}
	return false
}
