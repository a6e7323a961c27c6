package ledger

import (
	"context"
	"strings"
	"time"

	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func requireDate(d calendar.Date) error {
	if d.IsZero() {
		return apperr.E(apperr.InvalidInput, "date is required").WithField("date", "date is required")
	}
	return nil
}

// Incomes records money received.
type Incomes struct {
	store store.Incomes
	now   func() time.Time
	log   *logging.Logger
}

func NewIncomes(s store.Incomes, opts Options) *Incomes {
	return &Incomes{store: s, now: opts.clock(), log: opts.logger()}
}

func (i *Incomes) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, source string, date calendar.Date) (*models.Income, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	source, err := checkLabel(source, MaxSourceLength, "source", apperr.InvalidSource)
	if err != nil {
		return nil, err
	}
	if err := requireDate(date); err != nil {
		return nil, err
	}
	income := &models.Income{ID: uuid.New(), UserID: userID, Amount: amount, Source: source, Date: date}
	if err := i.store.CreateIncome(ctx, income); err != nil {
		return nil, writeError(ctx, i.log, logging.OpCreate, err)
	}
	return income, nil
}

func (i *Incomes) Get(ctx context.Context, userID, id uuid.UUID) (*models.Income, error) {
	income, err := i.store.GetIncome(ctx, id)
	if err != nil {
		return nil, lookup(err, "income")
	}
	if err := checkOwner(income.UserID, userID, "income"); err != nil {
		return nil, err
	}
	return income, nil
}

// ListMonth returns the caller's incomes dated within month (YYYY-MM).
func (i *Incomes) ListMonth(ctx context.Context, userID uuid.UUID, month string) ([]models.Income, error) {
	ym, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	return i.listMonth(ctx, userID, ym)
}

func (i *Incomes) CurrentMonth(ctx context.Context, userID uuid.UUID) ([]models.Income, error) {
	return i.listMonth(ctx, userID, calendar.MonthOf(i.now()))
}

func (i *Incomes) listMonth(ctx context.Context, userID uuid.UUID, ym calendar.YearMonth) ([]models.Income, error) {
	start, end := ym.Range()
	out, err := i.store.ListIncomes(ctx, userID, start, end)
	if err != nil {
		return nil, lookup(err, "incomes")
	}
	return out, nil
}

func (i *Incomes) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := i.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := i.store.DeleteIncome(ctx, id); err != nil {
		return writeError(ctx, i.log, logging.OpDelete, err)
	}
	return nil
}

// Expenses records money spent, tagged by category.
type Expenses struct {
	store store.Expenses
	now   func() time.Time
	log   *logging.Logger
}

func NewExpenses(s store.Expenses, opts Options) *Expenses {
	return &Expenses{store: s, now: opts.clock(), log: opts.logger()}
}

// Create stores an expense. The category is trimmed; a blank note is stored as absent.
func (e *Expenses) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, category string, date calendar.Date, note *string) (*models.Expense, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	category, err := checkLabel(category, MaxCategoryLength, "category", apperr.InvalidCategory)
	if err != nil {
		return nil, err
	}
	if err := requireDate(date); err != nil {
		return nil, err
	}
	if note != nil && strings.TrimSpace(*note) == "" {
		note = nil
	}
	expense := &models.Expense{ID: uuid.New(), UserID: userID, Amount: amount, Category: category, Date: date, Note: note}
	if err := e.store.CreateExpense(ctx, expense); err != nil {
		return nil, writeError(ctx, e.log, logging.OpCreate, err)
	}
	return expense, nil
}

func (e *Expenses) Get(ctx context.Context, userID, id uuid.UUID) (*models.Expense, error) {
	expense, err := e.store.GetExpense(ctx, id)
	if err != nil {
		return nil, lookup(err, "expense")
	}
	if err := checkOwner(expense.UserID, userID, "expense"); err != nil {
		return nil, err
	}
	return expense, nil
}

func (e *Expenses) ListMonth(ctx context.Context, userID uuid.UUID, month string) ([]models.Expense, error) {
	ym, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	return e.listMonth(ctx, userID, ym)
}

func (e *Expenses) CurrentMonth(ctx context.Context, userID uuid.UUID) ([]models.Expense, error) {
	return e.listMonth(ctx, userID, calendar.MonthOf(e.now()))
}

func (e *Expenses) listMonth(ctx context.Context, userID uuid.UUID, ym calendar.YearMonth) ([]models.Expense, error) {
	start, end := ym.Range()
	out, err := e.store.ListExpenses(ctx, userID, start, end)
	if err != nil {
		return nil, lookup(err, "expenses")
	}
	return out, nil
}

func (e *Expenses) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := e.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := e.store.DeleteExpense(ctx, id); err != nil {
		return writeError(ctx, e.log, logging.OpDelete, err)
	}
	return nil
}
