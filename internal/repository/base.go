// Package repository implements the data access layer for Inkraft.
package repository

import (
	"encoding/json"
	"errors"
	"strings"

	"inkraft/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Page normalizes a limit/offset pair from request input.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError and
// anything else to INTERNAL_ERROR.
func notFoundOr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likeEscapeClause goes after every LIKE built from likePattern or tagPattern.
const likeEscapeClause = ` ESCAPE '\'`

// likePattern lowercases user input, escapes LIKE wildcards and wraps it in %...%.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// tagPattern matches one element of a JSON-encoded string list column. The
// tag goes through the same encoder as the column so escaped characters such
// as & and < line up.
func tagPattern(tag string) string {
	encoded, _ := json.Marshal(tag)
	return "%" + likeEscaper.Replace(string(encoded)) + "%"
}

// publicUserColumns is what gets preloaded when a user is embedded in
// another resource.
var publicUserColumns = []string{"id", "username", "name", "bio", "avatar", "role", "trust_score", "created_at"}

func preloadPublicUser(db *gorm.DB) *gorm.DB {
	return db.Select(publicUserColumns)
}
