package ledger

import (
	"context"
	"errors"
	"time"

	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budgets manages monthly budgets. A user holds at most one budget per month.
type Budgets struct {
	store store.Budgets
	now   func() time.Time
	log   *logging.Logger
}

func NewBudgets(s store.Budgets, opts Options) *Budgets {
	return &Budgets{store: s, now: opts.clock(), log: opts.logger()}
}

// Create validates month and amount, refuses a second budget for the same
// month and otherwise inserts. Concurrent creates for one month are settled
// by the store's unique constraint; the loser gets AlreadyExists.
func (b *Budgets) Create(ctx context.Context, userID uuid.UUID, month string, amount decimal.Decimal) (*models.Budget, error) {
	ym, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	existing, err := b.store.GetBudgetByMonth(ctx, userID, ym)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.E(apperr.AlreadyExists, "budget already exists for this month")
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, lookup(err, "budget")
	}

	budget := &models.Budget{ID: uuid.New(), UserID: userID, Month: ym, Amount: amount}
	if err := b.store.CreateBudget(ctx, budget); err != nil {
		return nil, writeError(ctx, b.log, logging.OpCreate, err)
	}
	b.log.InfoContext(ctx, "budget created",
		logging.FieldUserID, userID.String(),
		logging.FieldMonth, ym.String(),
	)
	return budget, nil
}

// Get returns the budget if the caller owns it.
func (b *Budgets) Get(ctx context.Context, userID, id uuid.UUID) (*models.Budget, error) {
	budget, err := b.store.GetBudget(ctx, id)
	if err != nil {
		return nil, lookup(err, "budget")
	}
	if err := checkOwner(budget.UserID, userID, "budget"); err != nil {
		return nil, err
	}
	return budget, nil
}

// ForMonth returns the caller's budget for month (YYYY-MM).
func (b *Budgets) ForMonth(ctx context.Context, userID uuid.UUID, month string) (*models.Budget, error) {
	ym, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	return b.forMonth(ctx, userID, ym)
}

// CurrentMonth returns the caller's budget for the current UTC month.
func (b *Budgets) CurrentMonth(ctx context.Context, userID uuid.UUID) (*models.Budget, error) {
	return b.forMonth(ctx, userID, calendar.MonthOf(b.now()))
}

func (b *Budgets) forMonth(ctx context.Context, userID uuid.UUID, ym calendar.YearMonth) (*models.Budget, error) {
	budget, err := b.store.GetBudgetByMonth(ctx, userID, ym)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "no budget found for %s", ym)
		}
		return nil, lookup(err, "budget")
	}
	return budget, nil
}

// UpdateAmount replaces the budget amount. Checks run in the order
// NotFound, Unauthorized, InvalidAmount.
func (b *Budgets) UpdateAmount(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*models.Budget, error) {
	budget, err := b.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	budget.Amount = amount
	if err := b.store.UpdateBudget(ctx, budget); err != nil {
		return nil, writeError(ctx, b.log, logging.OpUpdate, err)
	}
	return budget, nil
}

func (b *Budgets) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := b.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := b.store.DeleteBudget(ctx, id); err != nil {
		return writeError(ctx, b.log, logging.OpDelete, err)
	}
	return nil
}
