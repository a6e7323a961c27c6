package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"budgetd/config"
	"budgetd/logging"
	"budgetd/models"
	"budgetd/pkg/calendar"
	"budgetd/store"
	"budgetd/store/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = func() time.Time { return time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC) }

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	user := &models.User{ID: uuid.New(), Email: "alice@example.com", HashedPassword: []byte("x"), FullName: "Alice"}
	require.NoError(t, st.CreateUser(ctx, user))
	require.NoError(t, st.CreateIncome(ctx, &models.Income{
		ID: uuid.New(), UserID: user.ID, Amount: decimal.RequireFromString("2500"), Source: "Salary",
		Date: calendar.NewDate(2026, time.March, 1),
	}))
	note := "weekly shop"
	require.NoError(t, st.CreateExpense(ctx, &models.Expense{
		ID: uuid.New(), UserID: user.ID, Amount: decimal.RequireFromString("80.50"), Category: "Food",
		Date: calendar.NewDate(2026, time.March, 3), Note: &note,
	}))
	require.NoError(t, st.CreateExpense(ctx, &models.Expense{
		ID: uuid.New(), UserID: user.ID, Amount: decimal.RequireFromString("999"), Category: "Rent",
		Date: calendar.NewDate(2026, time.February, 3),
	}))
	return st
}

func opens(st store.Store) opener {
	return func(context.Context, *config.Config, *logging.Logger) (store.Store, error) { return st, nil }
}

func testConfig() *config.Config {
	return &config.Config{LogLevel: "error", LogFormat: "text"}
}

func TestReport(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-email", "alice@example.com", "-month", "2026-03", "-list"},
		&out, &errOut, testConfig(), opens(seeded(t)), now)
	require.Equal(t, 0, code, errOut.String())

	got := out.String()
	assert.Contains(t, got, "Report for user=alice@example.com month=2026-03")
	assert.Contains(t, got, "total_income=2500.00 total_expenses=80.50 net_balance=2419.50")
	assert.Contains(t, got, "Food=80.50")
	assert.NotContains(t, got, "Rent")
	assert.Contains(t, got, "|2026-03-03|80.50|Food|weekly shop")
}

func TestReportDefaultsToCurrentMonth(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-email", "alice@example.com"},
		&out, &errOut, testConfig(), opens(seeded(t)), now)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "month=2026-03")
	assert.NotContains(t, out.String(), "income|")
}

func TestReportErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no email", nil, 2},
		{"bad month", []string{"-email", "alice@example.com", "-month", "2026-3"}, 2},
		{"unknown user", []string{"-email", "nobody@example.com"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			assert.Equal(t, tt.code, run(context.Background(), tt.args, &out, &errOut, testConfig(), opens(seeded(t)), now))
		})
	}
}
