// Command report prints a user's monthly summary straight from the database.
//
//	report -email alice@example.com -month 2026-03 [-list]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"budgetd/backend"
	"budgetd/config"
	"budgetd/logging"
	"budgetd/pkg/calendar"
	"budgetd/pkg/money"
	"budgetd/report"
	"budgetd/store"
)

type opener func(ctx context.Context, cfg *config.Config, log *logging.Logger) (store.Store, error)

func openPostgres(ctx context.Context, cfg *config.Config, log *logging.Logger) (store.Store, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL (or DB_DSN) not set; export it and retry")
	}
	s, err := backend.OpenPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, config.Load(), openPostgres, time.Now))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, cfg *config.Config, open opener, now func() time.Time) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "email of the user to report for")
	month := fs.String("month", calendar.MonthOf(now()).String(), "month to report (YYYY-MM)")
	list := fs.Bool("list", false, "list matching incomes and expenses")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *email == "" {
		fmt.Fprintln(stderr, "usage: report -email <email> [-month YYYY-MM] [-list]")
		return 2
	}
	ym, err := calendar.ParseYearMonth(*month)
	if err != nil {
		fmt.Fprintf(stderr, "invalid month: %v\n", err)
		return 2
	}

	log := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: "report",
		Output:    stderr,
	})
	st, err := open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "open db: %v\n", err)
		return 1
	}
	defer st.Close()

	user, err := st.GetUserByEmail(ctx, strings.TrimSpace(*email))
	if err != nil {
		fmt.Fprintf(stderr, "user not found: %v\n", err)
		return 1
	}

	sum, err := report.NewAggregator(st, now, log).Summarize(ctx, user.ID, ym.String())
	if err != nil {
		fmt.Fprintf(stderr, "summary failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Report for user=%s month=%s (UTC):\n", user.Email, sum.Month)
	fmt.Fprintf(stdout, "  total_income=%s total_expenses=%s net_balance=%s\n",
		money.Format(sum.TotalIncome), money.Format(sum.TotalExpenses), money.Format(sum.NetBalance))
	cats := make([]string, 0, len(sum.ExpensesByCategory))
	for c := range sum.ExpensesByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(stdout, "  %s=%s\n", c, money.Format(sum.ExpensesByCategory[c]))
	}

	if *list {
		start, end := ym.Range()
		incomes, err := st.ListIncomes(ctx, user.ID, start, end)
		if err != nil {
			fmt.Fprintf(stderr, "fetch incomes failed: %v\n", err)
			return 1
		}
		for _, in := range incomes {
			fmt.Fprintf(stdout, "income|%s|%s|%s|%s\n", in.ID, in.Date, money.Format(in.Amount), in.Source)
		}
		expenses, err := st.ListExpenses(ctx, user.ID, start, end)
		if err != nil {
			fmt.Fprintf(stderr, "fetch expenses failed: %v\n", err)
			return 1
		}
		for _, e := range expenses {
			note := ""
			if e.Note != nil {
				note = *e.Note
			}
			fmt.Fprintf(stdout, "expense|%s|%s|%s|%s|%s\n", e.ID, e.Date, money.Format(e.Amount), e.Category, note)
		}
	}
	return 0
}
