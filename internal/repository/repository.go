package repository

import "strings"

// isUniqueViolation reports whether err is a uniqueness-constraint
// violation. Works for both SQLite and PostgreSQL error strings.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE constraint failed") || strings.Contains(s, "duplicate key value")
}
