package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the ledger reacts to
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == codeUniqueViolation
}

// isContention reports errors caused by competing transactions rather
// than a broken database
func isContention(err error) bool {
	switch pgErrorCode(err) {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}
