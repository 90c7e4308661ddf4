// Package pgerrors classifies Postgres errors surfaced through gorm.
package pgerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	UniqueViolationCode      = "23505"
	ForeignKeyViolationCode  = "23503"
	CheckViolationCode       = "23514"
	SerializationFailureCode = "40001"
	DeadlockDetectedCode     = "40P01"
	LockNotAvailableCode     = "55P03"
)

// Code returns the SQLSTATE of err, or "" when err is not a Postgres error
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool     { return Code(err) == UniqueViolationCode }
func IsForeignKeyViolation(err error) bool { return Code(err) == ForeignKeyViolationCode }
func IsCheckViolation(err error) bool      { return Code(err) == CheckViolationCode }

// IsTransient reports contention errors after which the whole transaction may be retried
func IsTransient(err error) bool {
	switch Code(err) {
	case SerializationFailureCode, DeadlockDetectedCode, LockNotAvailableCode:
		return true
	}
	return false
}
