// Package ledger holds the user-scoped budget, income and expense services.
// Every operation takes the caller's user id; records owned by someone else
// are reported as Unauthorized, missing records as NotFound.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"budgetd/logging"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/pkg/money"
	"budgetd/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxCategoryLength = 100
	MaxSourceLength   = 255
)

type Options struct {
	// Now is the clock used to resolve the current month. Defaults to time.Now.
	Now    func() time.Time
	Logger *logging.Logger
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

func (o Options) logger() *logging.Logger {
	if o.Logger != nil {
		return o.Logger.WithComponent(logging.ComponentLedger)
	}
	return logging.Discard()
}

func parseMonth(month string) (calendar.YearMonth, error) {
	ym, err := calendar.ParseYearMonth(month)
	if err != nil {
		return calendar.YearMonth{}, apperr.E(apperr.InvalidMonth, err.Error()).WithField("month", err.Error())
	}
	return ym, nil
}

func checkAmount(amount decimal.Decimal) error {
	if err := money.Validate(amount); err != nil {
		return apperr.E(apperr.InvalidAmount, err.Error()).WithField("amount", err.Error())
	}
	return nil
}

// checkLabel trims s and enforces 1..max characters.
func checkLabel(s string, max int, field string, kind apperr.Kind) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		msg := field + " must be provided"
		return "", apperr.E(kind, msg).WithField(field, msg)
	}
	if utf8.RuneCountInString(s) > max {
		msg := field + " is too long"
		return "", apperr.E(kind, msg).WithField(field, msg)
	}
	return s, nil
}

// lookup converts a store read error for the named record.
func lookup(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, what+" not found")
	}
	return apperr.Wrap(apperr.Internal, "could not load "+what, err)
}

func checkOwner(owner, caller uuid.UUID, what string) error {
	if owner != caller {
		return apperr.E(apperr.Unauthorized, "not authorized to access this "+what)
	}
	return nil
}

// writeError maps a failed insert or update onto the domain error kinds.
// Violations of constraints this package does not know about stay opaque to
// the caller and are logged in full.
func writeError(ctx context.Context, log *logging.Logger, op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, "record not found")
	}
	cv, ok := store.AsViolation(err)
	if !ok {
		log.ErrorContext(ctx, "storage failure", logging.FieldOperation, op, logging.FieldError, err.Error())
		return apperr.Wrap(apperr.Internal, "an unexpected error occurred", err)
	}
	switch cv.Constraint {
	case store.ConstraintBudgetUserMonthUnique:
		return apperr.Wrap(apperr.AlreadyExists, "budget already exists for this month", err)
	case store.ConstraintBudgetAmountPositive, store.ConstraintIncomeAmountPositive, store.ConstraintExpenseAmountPositive:
		return apperr.Wrap(apperr.InvalidAmount, money.ErrNotPositive.Error(), err)
	case store.ConstraintBudgetMonthFormat:
		return apperr.Wrap(apperr.InvalidMonth, calendar.ErrMonthFormat.Error(), err)
	case store.ConstraintExpenseCategoryNonEmpty:
		return apperr.Wrap(apperr.InvalidCategory, "category must be provided", err)
	case store.ConstraintIncomeSourceNonEmpty:
		return apperr.Wrap(apperr.InvalidSource, "source must be provided", err)
	}
	log.ErrorContext(ctx, "unrecognized constraint violation",
		logging.FieldOperation, op,
		"constraint", cv.Constraint,
		"violation", cv.Kind.String(),
		logging.FieldError, err.Error(),
	)
	return apperr.Wrap(apperr.StorageConstraint, "an unexpected error occurred", err)
}
