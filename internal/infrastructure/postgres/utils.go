package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier operaciones comunes a *pgxpool.Pool y pgx.Tx; los repositorios aceptan cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Códigos SQLSTATE relevantes para el ledger.
const (
	codeNumericOutOfRange    = "22003"
	codeCheckViolation       = "23514"
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

// isCheckViolation verifica si un error es una violación de CHECK (23514), p.ej. cantidad negativa.
func isCheckViolation(err error) bool {
	return pgErrorCode(err) == codeCheckViolation
}

// isOutOfRange indica desbordamiento numérico (22003), p.ej. quantity + delta fuera de BIGINT.
func isOutOfRange(err error) bool {
	return pgErrorCode(err) == codeNumericOutOfRange
}

// isLockConflict indica deadlock, lock_timeout o conflicto de serialización.
func isLockConflict(err error) bool {
	switch pgErrorCode(err) {
	case codeDeadlockDetected, codeLockNotAvailable, codeSerializationFailure:
		return true
	}
	return false
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
