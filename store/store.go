// Package store declares the persistence capabilities used by the budgeting
// services. Implementations live in store/postgres and store/memory.
package store

import (
	"context"
	"errors"
	"fmt"

	"budgetd/models"
	"budgetd/pkg/calendar"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: record not found")

// Constraint names shared by the SQL schema and the memory store.
const (
	ConstraintUserEmailUnique         = "uq_users_email"
	ConstraintBudgetUserMonthUnique   = "uq_budgets_user_month"
	ConstraintBudgetAmountPositive    = "ck_budgets_amount_positive"
	ConstraintBudgetMonthFormat       = "ck_budgets_month_format"
	ConstraintIncomeAmountPositive    = "ck_incomes_amount_positive"
	ConstraintIncomeSourceNonEmpty    = "ck_incomes_source_nonempty"
	ConstraintExpenseAmountPositive   = "ck_expenses_amount_positive"
	ConstraintExpenseCategoryNonEmpty = "ck_expenses_category_nonempty"
)

type ViolationKind int

const (
	UniqueViolation ViolationKind = iota + 1
	CheckViolation
	ForeignKeyViolation
)

func (k ViolationKind) String() string {
	switch k {
	case UniqueViolation:
		return "unique"
	case CheckViolation:
		return "check"
	case ForeignKeyViolation:
		return "foreign key"
	default:
		return "unknown"
	}
}

// ConstraintViolation reports a write rejected by a schema constraint.
// Constraint is empty when the backend could not name it.
type ConstraintViolation struct {
	Kind       ViolationKind
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("store: %s constraint violated", e.Kind)
	}
	return fmt.Sprintf("store: %s constraint %q violated", e.Kind, e.Constraint)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// AsViolation extracts a *ConstraintViolation from err.
func AsViolation(err error) (*ConstraintViolation, bool) {
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetUserByEmail matches the email exactly.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// DeleteUser removes the user and every budget, income and expense they own.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Budgets interface {
	CreateBudget(ctx context.Context, b *models.Budget) error
	GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	GetBudgetByMonth(ctx context.Context, userID uuid.UUID, month calendar.YearMonth) (*models.Budget, error)
	UpdateBudget(ctx context.Context, b *models.Budget) error
	DeleteBudget(ctx context.Context, id uuid.UUID) error
}

type Incomes interface {
	CreateIncome(ctx context.Context, in *models.Income) error
	GetIncome(ctx context.Context, id uuid.UUID) (*models.Income, error)
	DeleteIncome(ctx context.Context, id uuid.UUID) error
	// ListIncomes returns the user's incomes dated in [start, end), oldest first.
	ListIncomes(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Income, error)
}

type Expenses interface {
	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	// ListExpenses returns the user's expenses dated in [start, end), oldest first.
	ListExpenses(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Expense, error)
}

// Store bundles every capability a backend provides.
type Store interface {
	Users
	Budgets
	Incomes
	Expenses
	Ping(ctx context.Context) error
	Close() error
}
