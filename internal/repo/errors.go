// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file centralizes repository error values and the
// driver-specific detection of uniqueness violations.
package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert collided with a uniqueness
// constraint (canonical pair key, idempotency tuple).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
// glebarez/sqlite often surfaces these as plain-text errors rather than
// gorm.ErrDuplicatedKey, so the message is matched as a fallback.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
