package main

import (
	"bytes"
	"context"
	"testing"

	"budgetd/config"
	"budgetd/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTables struct {
	present   map[string]bool
	truncated []string
	closed    bool
}

func (f *fakeTables) ExistingTables(_ context.Context, names []string) ([]string, error) {
	var out []string
	for _, n := range names {
		if f.present[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeTables) Truncate(_ context.Context, tables []string) error {
	f.truncated = append(f.truncated, tables...)
	return nil
}

func (f *fakeTables) Close() error {
	f.closed = true
	return nil
}

func newFake() *fakeTables {
	return &fakeTables{present: map[string]bool{"expenses": true, "incomes": true, "budgets": true, "users": true}}
}

func runWith(t *testing.T, f *fakeTables, args ...string) (int, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	open := func(context.Context, *config.Config, *logging.Logger) (tables, error) { return f, nil }
	code := run(context.Background(), args, &out, &errOut, &config.Config{LogLevel: "error"}, open)
	return code, out.String()
}

func TestDryRunByDefault(t *testing.T) {
	f := newFake()
	code, out := runWith(t, f)
	require.Equal(t, 0, code)
	assert.Contains(t, out, " - expenses")
	assert.Contains(t, out, "dry-run enabled")
	assert.Empty(t, f.truncated)
	assert.True(t, f.closed)
}

func TestRequiresConfirmation(t *testing.T) {
	f := newFake()
	code, out := runWith(t, f, "-dry-run=false")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Pass -yes")
	assert.Empty(t, f.truncated)
}

func TestTruncate(t *testing.T) {
	f := newFake()
	code, out := runWith(t, f, "-dry-run=false", "-yes", "-tables", "budgets,missing,incomes")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Truncate completed.")
	assert.Equal(t, []string{"budgets", "incomes"}, f.truncated)
}

func TestNothingToDo(t *testing.T) {
	f := &fakeTables{present: map[string]bool{}}
	code, out := runWith(t, f, "-dry-run=false", "-yes")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "nothing to do")
	assert.Empty(t, f.truncated)
}
