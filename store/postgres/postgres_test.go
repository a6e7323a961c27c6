package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"budgetd/models"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Postgres tests are opt-in. Set DB_DSN_TEST=1 and DATABASE_URL to run them.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("postgres tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	require.NotEmpty(t, dsn, "DATABASE_URL must be set")
	require.NoError(t, Migrate(dsn))

	s, err := Open(context.Background(), Options{DSN: dsn, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(t *testing.T, s *Store) *models.User {
	t.Helper()
	u := &models.User{
		Email:          "pg-" + uuid.NewString() + "@example.com",
		FullName:       "PG User",
		HashedPassword: []byte("hash"),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	t.Cleanup(func() { _ = s.DeleteUser(context.Background(), u.ID) })
	return u
}

func TestPostgresBudgetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s)
	month := calendar.YearMonth{Year: 2024, Month: time.March}

	b := &models.Budget{UserID: u.ID, Month: month, Amount: decimal.RequireFromString("5000.00")}
	require.NoError(t, s.CreateBudget(ctx, b))

	got, err := s.GetBudgetByMonth(ctx, u.ID, month)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "2024-03", got.Month.String())
	assert.Equal(t, "5000.00", got.Amount.StringFixed(2))

	err = s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: month, Amount: decimal.NewFromInt(1)})
	cv, ok := store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ConstraintBudgetUserMonthUnique, cv.Constraint)

	err = s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: month.Next(), Amount: decimal.NewFromInt(-1)})
	cv, ok = store.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, store.ConstraintBudgetAmountPositive, cv.Constraint)
}

func TestPostgresConcurrentBudgetInsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s)
	month := calendar.YearMonth{Year: 2025, Month: time.July}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateBudget(ctx, &models.Budget{UserID: u.ID, Month: month, Amount: decimal.NewFromInt(100)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		cv, ok := store.AsViolation(err)
		require.True(t, ok)
		assert.Equal(t, store.UniqueViolation, cv.Kind)
	}
	assert.Equal(t, 1, succeeded)
}

func TestPostgresDeleteUserCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s)

	e := &models.Expense{UserID: u.ID, Amount: decimal.RequireFromString("12.34"), Category: "Food", Date: calendar.NewDate(2024, time.March, 3)}
	require.NoError(t, s.CreateExpense(ctx, e))
	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.GetExpense(ctx, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
