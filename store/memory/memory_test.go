package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"budgetd/models"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: "Test User", HashedPassword: []byte("x")}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := New()
	seedUser(t, s, "a@example.com")

	err := s.CreateUser(context.Background(), &models.User{Email: "a@example.com"})
	cv, ok := store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.UniqueViolation, cv.Kind)
	assert.Equal(t, store.ConstraintUserEmailUnique, cv.Constraint)

	// case-sensitive match
	require.NoError(t, s.CreateUser(context.Background(), &models.User{Email: "A@example.com"}))
}

func TestBudgetConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "b@example.com")
	march := calendar.YearMonth{Year: 2024, Month: time.March}

	err := s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: march, Amount: decimal.Zero})
	cv, ok := store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ConstraintBudgetAmountPositive, cv.Constraint)

	err = s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: calendar.YearMonth{Year: 2024, Month: 13}, Amount: decimal.NewFromInt(1)})
	cv, ok = store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ConstraintBudgetMonthFormat, cv.Constraint)

	require.NoError(t, s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: march, Amount: decimal.NewFromInt(500)}))
	err = s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: march, Amount: decimal.NewFromInt(600)})
	cv, ok = store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.UniqueViolation, cv.Kind)
	assert.Equal(t, store.ConstraintBudgetUserMonthUnique, cv.Constraint)
}

func TestBudgetRequiresExistingUser(t *testing.T) {
	s := New()
	err := s.CreateBudget(context.Background(), &models.Budget{
		Month:  calendar.YearMonth{Year: 2024, Month: time.March},
		Amount: decimal.NewFromInt(10),
	})
	cv, ok := store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ForeignKeyViolation, cv.Kind)
}

func TestConcurrentBudgetCreateOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "race@example.com")
	month := calendar.YearMonth{Year: 2024, Month: time.May}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: month, Amount: decimal.NewFromInt(100)})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		cv, isViolation := store.AsViolation(err)
		require.True(t, isViolation, "unexpected error %v", err)
		assert.Equal(t, store.ConstraintBudgetUserMonthUnique, cv.Constraint)
		dup++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestListIncomesHalfOpenRange(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "c@example.com")
	other := seedUser(t, s, "d@example.com")

	for _, d := range []calendar.Date{
		calendar.NewDate(2024, time.February, 29),
		calendar.NewDate(2024, time.March, 31),
		calendar.NewDate(2024, time.March, 1),
		calendar.NewDate(2024, time.April, 1),
	} {
		require.NoError(t, s.CreateIncome(ctx, &models.Income{UserID: u.ID, Amount: decimal.NewFromInt(10), Source: "salary", Date: d}))
	}
	require.NoError(t, s.CreateIncome(ctx, &models.Income{UserID: other.ID, Amount: decimal.NewFromInt(10), Source: "salary", Date: calendar.NewDate(2024, time.March, 5)}))

	start, end := calendar.YearMonth{Year: 2024, Month: time.March}.Range()
	got, err := s.ListIncomes(ctx, u.ID, start, end)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-01", got[0].Date.String())
	assert.Equal(t, "2024-03-31", got[1].Date.String())
}

func TestExpenseChecks(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "e@example.com")

	err := s.CreateExpense(ctx, &models.Expense{UserID: u.ID, Amount: decimal.NewFromInt(5), Category: "   ", Date: calendar.NewDate(2024, time.March, 1)})
	cv, ok := store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ConstraintExpenseCategoryNonEmpty, cv.Constraint)

	err = s.CreateExpense(ctx, &models.Expense{UserID: u.ID, Amount: decimal.NewFromInt(-5), Category: "Food", Date: calendar.NewDate(2024, time.March, 1)})
	cv, ok = store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ConstraintExpenseAmountPositive, cv.Constraint)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "f@example.com")
	march := calendar.YearMonth{Year: 2024, Month: time.March}

	b := &models.Budget{UserID: u.ID, Month: march, Amount: decimal.NewFromInt(100)}
	require.NoError(t, s.CreateBudget(ctx, b))
	in := &models.Income{UserID: u.ID, Amount: decimal.NewFromInt(10), Source: "gift", Date: march.First()}
	require.NoError(t, s.CreateIncome(ctx, in))
	e := &models.Expense{UserID: u.ID, Amount: decimal.NewFromInt(3), Category: "Food", Date: march.First()}
	require.NoError(t, s.CreateExpense(ctx, e))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.GetBudget(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetIncome(ctx, in.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetExpense(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "f@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// month slot is free again for a re-registered account
	u2 := seedUser(t, s, "f@example.com")
	require.NoError(t, s.CreateBudget(ctx, &models.Budget{UserID: u2.ID, Month: march, Amount: decimal.NewFromInt(1)}))
}

func TestUpdateBudgetKeepsMonth(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "g@example.com")
	b := &models.Budget{UserID: u.ID, Month: calendar.YearMonth{Year: 2024, Month: time.June}, Amount: decimal.NewFromInt(100)}
	require.NoError(t, s.CreateBudget(ctx, b))

	upd := &models.Budget{ID: b.ID, Amount: decimal.RequireFromString("250.50")}
	require.NoError(t, s.UpdateBudget(ctx, upd))
	assert.Equal(t, "2024-06", upd.Month.String())
	assert.True(t, upd.Amount.Equal(decimal.RequireFromString("250.50")))

	err := s.UpdateBudget(ctx, &models.Budget{ID: b.ID, Amount: decimal.Zero})
	_, ok := store.AsViolation(err)
	assert.True(t, ok)
}

func TestExpenseNoteIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "note@example.com")
	day := calendar.NewDate(2024, time.March, 2)

	note := "groceries"
	e := &models.Expense{UserID: u.ID, Amount: decimal.NewFromInt(5), Category: "Food", Date: day, Note: &note}
	require.NoError(t, s.CreateExpense(ctx, e))
	note = "changed by caller"

	got, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Note)
	assert.Equal(t, "groceries", *got.Note)

	*got.Note = "changed after read"
	start, end := day.YearMonth().Range()
	list, err := s.ListExpenses(ctx, u.ID, start, end)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "groceries", *list[0].Note)

	*list[0].Note = "changed after list"
	again, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", *again.Note)
}
