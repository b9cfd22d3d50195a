package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"shopledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgSerializationFailed = "40001"
)

// WriteError translates a failed INSERT/UPDATE into an AppError where the
// database reported a constraint violation, and wraps it otherwise.
// field and value describe the natural key used for duplicate messages.
func WriteError(op, entity, field, value string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s %s: %w", op, entity, err)
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, field, value).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "stored value violates a ledger constraint").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgSerializationFailed:
		return apperror.NewConcurrentModification(entity, value).WithCause(err)
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}
