package postgres

import (
	"errors"
	"regexp"
	"strings"

	"budgetd/store"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateCheckViolation      = "23514"
	sqlStateForeignKeyViolation = "23503"
)

var constraintNameRE = regexp.MustCompile(`constraint "([^"]+)"`)

// translate maps driver errors onto the store error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return &store.ConstraintViolation{Kind: store.UniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
		case sqlStateCheckViolation:
			return &store.ConstraintViolation{Kind: store.CheckViolation, Constraint: pgErr.ConstraintName, Err: err}
		case sqlStateForeignKeyViolation:
			return &store.ConstraintViolation{Kind: store.ForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
		}
		return err
	}
	// Wrapped or proxied errors sometimes lose the typed PgError; fall back to the message.
	msg := err.Error()
	kind := store.ViolationKind(0)
	switch {
	case strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint"):
		kind = store.UniqueViolation
	case strings.Contains(msg, "check constraint"):
		kind = store.CheckViolation
	case strings.Contains(msg, "foreign key constraint"):
		kind = store.ForeignKeyViolation
	default:
		return err
	}
	name := ""
	if m := constraintNameRE.FindStringSubmatch(msg); m != nil {
		name = m[1]
	}
	return &store.ConstraintViolation{Kind: kind, Constraint: name, Err: err}
}
