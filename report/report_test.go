package report

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"budgetd/models"
	"budgetd/pkg/apperr"
	"budgetd/pkg/calendar"
	"budgetd/store/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2024, time.April, 2, 8, 30, 0, 0, time.FixedZone("CET", 3600))

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T) (*memory.Store, uuid.UUID) {
	t.Helper()
	s := memory.New()
	u := &models.User{Email: "report@example.com", FullName: "Reporter", HashedPassword: []byte("x")}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return s, u.ID
}

func TestSummarizeMarch(t *testing.T) {
	ctx := context.Background()
	s, user := seed(t)

	add := func(amount string, source string, d calendar.Date) {
		require.NoError(t, s.CreateIncome(ctx, &models.Income{UserID: user, Amount: dec(amount), Source: source, Date: d}))
	}
	spend := func(amount, category string, d calendar.Date) {
		require.NoError(t, s.CreateExpense(ctx, &models.Expense{UserID: user, Amount: dec(amount), Category: category, Date: d}))
	}

	add("3500.00", "Salary", calendar.NewDate(2024, time.March, 15))
	add("250.50", "Freelance", calendar.NewDate(2024, time.March, 31))
	add("999.99", "Outside", calendar.NewDate(2024, time.April, 1))
	spend("150.00", "Groceries", calendar.NewDate(2024, time.March, 1))
	spend("49.99", "Groceries", calendar.NewDate(2024, time.March, 20))
	spend("1200.00", "Rent", calendar.NewDate(2024, time.March, 2))
	spend("10.00", "groceries", calendar.NewDate(2024, time.March, 3))
	spend("75.00", "Outside", calendar.NewDate(2024, time.February, 29))

	agg := NewAggregator(s, func() time.Time { return generatedAt }, nil)
	sum, err := agg.Summarize(ctx, user, "2024-03")
	require.NoError(t, err)

	assert.Equal(t, "2024-03", sum.Month.String())
	assert.Equal(t, "3750.50", sum.TotalIncome.StringFixed(2))
	assert.Equal(t, "1409.99", sum.TotalExpenses.StringFixed(2))
	assert.Equal(t, "2340.51", sum.NetBalance.StringFixed(2))
	require.Len(t, sum.ExpensesByCategory, 3)
	assert.Equal(t, "199.99", sum.ExpensesByCategory["Groceries"].StringFixed(2))
	assert.Equal(t, "10.00", sum.ExpensesByCategory["groceries"].StringFixed(2))
	assert.Equal(t, "1200.00", sum.ExpensesByCategory["Rent"].StringFixed(2))
	assert.Equal(t, time.UTC, sum.GeneratedAt.Location())
	assert.True(t, sum.GeneratedAt.Equal(generatedAt))
}

func TestSummarizeEmptyMonth(t *testing.T) {
	s, user := seed(t)
	sum, err := NewAggregator(s, nil, nil).Summarize(context.Background(), user, "2030-01")
	require.NoError(t, err)
	assert.True(t, sum.TotalIncome.IsZero())
	assert.True(t, sum.TotalExpenses.IsZero())
	assert.True(t, sum.NetBalance.IsZero())
	assert.NotNil(t, sum.ExpensesByCategory)
	assert.Empty(t, sum.ExpensesByCategory)
}

func TestSummarizeDecemberRollsOver(t *testing.T) {
	ctx := context.Background()
	s, user := seed(t)
	require.NoError(t, s.CreateExpense(ctx, &models.Expense{UserID: user, Amount: dec("5"), Category: "Gifts", Date: calendar.NewDate(2023, time.December, 31)}))
	require.NoError(t, s.CreateExpense(ctx, &models.Expense{UserID: user, Amount: dec("7"), Category: "Gifts", Date: calendar.NewDate(2024, time.January, 1)}))

	sum, err := NewAggregator(s, nil, nil).Summarize(ctx, user, "2023-12")
	require.NoError(t, err)
	assert.Equal(t, "5.00", sum.TotalExpenses.StringFixed(2))
}

func TestSummarizeNegativeNet(t *testing.T) {
	ctx := context.Background()
	s, user := seed(t)
	require.NoError(t, s.CreateExpense(ctx, &models.Expense{UserID: user, Amount: dec("80.25"), Category: "Fuel", Date: calendar.NewDate(2024, time.May, 5)}))

	sum, err := NewAggregator(s, nil, nil).Summarize(ctx, user, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, "-80.25", sum.NetBalance.StringFixed(2))
}

func TestSummarizeInvalidMonth(t *testing.T) {
	s, user := seed(t)
	agg := NewAggregator(s, nil, nil)

	for _, m := range []string{"2024-13", "2024-3", "march", "2101-01"} {
		_, err := agg.Summarize(context.Background(), user, m)
		assert.Equal(t, apperr.InvalidMonth, apperr.KindOf(err), m)
	}

	_, shapeErr := agg.Summarize(context.Background(), user, "2024/03")
	_, rangeErr := agg.Summarize(context.Background(), user, "2024-13")
	assert.NotEqual(t, shapeErr.Error(), rangeErr.Error())
}

type failingSource struct{}

func (failingSource) ListIncomes(context.Context, uuid.UUID, calendar.Date, calendar.Date) ([]models.Income, error) {
	return nil, errors.New("db down")
}

func (failingSource) ListExpenses(context.Context, uuid.UUID, calendar.Date, calendar.Date) ([]models.Expense, error) {
	return nil, nil
}

func TestSummarizeStorageFailure(t *testing.T) {
	_, err := NewAggregator(failingSource{}, nil, nil).Summarize(context.Background(), uuid.New(), "2024-03")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestAggregationIsOrderIndependent(t *testing.T) {
	var expenses []models.Expense
	var incomes []models.Income
	cats := []string{"Food", "Rent", "Fun", "Transport"}
	for i := 0; i < 200; i++ {
		amt := decimal.New(int64(i*37%10000+1), -2)
		expenses = append(expenses, models.Expense{Amount: amt, Category: cats[i%len(cats)]})
		incomes = append(incomes, models.Income{Amount: amt})
	}

	wantTotal := SumExpenses(expenses)
	wantIncome := SumIncomes(incomes)
	wantGroups := GroupExpensesByCategory(expenses)

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		rng.Shuffle(len(expenses), func(i, j int) { expenses[i], expenses[j] = expenses[j], expenses[i] })
		rng.Shuffle(len(incomes), func(i, j int) { incomes[i], incomes[j] = incomes[j], incomes[i] })

		assert.True(t, wantTotal.Equal(SumExpenses(expenses)))
		assert.True(t, wantIncome.Equal(SumIncomes(incomes)))
		groups := GroupExpensesByCategory(expenses)
		require.Len(t, groups, len(wantGroups))
		for k, v := range wantGroups {
			assert.True(t, v.Equal(groups[k]), k)
		}
	}

	var grouped decimal.Decimal
	for _, v := range wantGroups {
		grouped = grouped.Add(v)
	}
	assert.True(t, grouped.Equal(wantTotal))
}
