// Package store persists every collection the record system reads and
// writes: roster entities, grade sources, actas, exams, surveys and local
// users. Two implementations exist, a mutex-guarded in-memory store for
// offline bootstrapping and tests, and a database/sql store for sqlite and
// postgres. Domain packages declare the narrow interfaces they consume; both
// implementations satisfy all of them.
package store

import "strings"

// User is a local-auth account. Password hashes are bcrypt.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"` // resident | evaluator | admin
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
