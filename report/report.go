// Package report builds the monthly income and expense summary for a user.
package report

import (
	"context"
	"time"

	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/pkg/money"
	"budgetd/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source is the read access the aggregator needs from the ledger store.
type Source interface {
	ListIncomes(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Income, error)
	ListExpenses(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Expense, error)
}

var _ Source = (store.Store)(nil)

type Summary struct {
	Month              calendar.YearMonth
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	NetBalance         decimal.Decimal
	ExpensesByCategory map[string]decimal.Decimal
	GeneratedAt        time.Time
}

type Aggregator struct {
	source Source
	now    func() time.Time
	log    *logging.Logger
}

func NewAggregator(source Source, now func() time.Time, log *logging.Logger) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Aggregator{source: source, now: now, log: log.WithComponent(logging.ComponentReport)}
}

// Summarize totals the user's incomes and expenses dated in month (YYYY-MM).
// A month with no records yields zero totals and an empty category map.
func (a *Aggregator) Summarize(ctx context.Context, userID uuid.UUID, month string) (*Summary, error) {
	ym, err := calendar.ParseYearMonth(month)
	if err != nil {
		return nil, apperr.E(apperr.InvalidMonth, err.Error()).WithField("month", err.Error())
	}
	start, end := ym.Range()

	incomes, err := a.source.ListIncomes(ctx, userID, start, end)
	if err != nil {
		return nil, a.storageError(ctx, err)
	}
	expenses, err := a.source.ListExpenses(ctx, userID, start, end)
	if err != nil {
		return nil, a.storageError(ctx, err)
	}

	totalIncome := SumIncomes(incomes)
	totalExpenses := SumExpenses(expenses)
	return &Summary{
		Month:              ym,
		TotalIncome:        totalIncome,
		TotalExpenses:      totalExpenses,
		NetBalance:         totalIncome.Sub(totalExpenses),
		ExpensesByCategory: GroupExpensesByCategory(expenses),
		GeneratedAt:        a.now().UTC(),
	}, nil
}

func (a *Aggregator) storageError(ctx context.Context, err error) error {
	a.log.ErrorContext(ctx, "report query failed", logging.FieldOperation, logging.OpSummary, logging.FieldError, err.Error())
	return apperr.Wrap(apperr.Internal, "could not build report", err)
}

func SumIncomes(incomes []models.Income) decimal.Decimal {
	total := decimal.Zero
	for _, in := range incomes {
		total = total.Add(in.Amount)
	}
	return total
}

func SumExpenses(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// GroupExpensesByCategory sums amounts per exact category string.
func GroupExpensesByCategory(expenses []models.Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = money.Sum(out[e.Category], e.Amount)
	}
	return out
}
