// Command db_sanitize empties the service tables. It is a dry run unless
// both -dry-run=false and -yes are given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"budgetd/backend"
	"budgetd/config"
	"budgetd/logging"
	"budgetd/store/postgres"
)

type tables interface {
	ExistingTables(ctx context.Context, names []string) ([]string, error)
	Truncate(ctx context.Context, tables []string) error
	Close() error
}

type opener func(ctx context.Context, cfg *config.Config, log *logging.Logger) (tables, error)

func openPostgres(ctx context.Context, cfg *config.Config, log *logging.Logger) (tables, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL (or DB_DSN) must be set to run db_sanitize")
	}
	s, err := backend.OpenPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, config.Load(), openPostgres))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, cfg *config.Config, open opener) int {
	fs := flag.NewFlagSet("db_sanitize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dryRun := fs.Bool("dry-run", true, "don't perform destructive actions; show what would be done")
	yes := fs.Bool("yes", false, "confirm destructive action (required to actually truncate)")
	names := fs.String("tables", strings.Join(postgres.AppTables, ","), "comma-separated list of tables to truncate")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: "db_sanitize",
		Output:    stderr,
	})
	st, err := open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "open db: %v\n", err)
		return 1
	}
	defer st.Close()

	existing, err := st.ExistingTables(ctx, strings.Split(*names, ","))
	if err != nil {
		fmt.Fprintf(stderr, "list tables: %v\n", err)
		return 1
	}
	if len(existing) == 0 {
		fmt.Fprintln(stdout, "no requested tables present in the database; nothing to do")
		return 0
	}

	fmt.Fprintln(stdout, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(stdout, " - %s\n", t)
	}
	if *dryRun {
		fmt.Fprintln(stdout, "dry-run enabled; no changes will be made. Use -dry-run=false -yes to execute.")
		return 0
	}
	if !*yes {
		fmt.Fprintln(stdout, "Destructive operation. Pass -yes to confirm execution. Aborting.")
		return 0
	}

	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := st.Truncate(tctx, existing); err != nil {
		fmt.Fprintf(stderr, "truncate failed: %v\n", err)
		return 1
	}
	log.Info("tables truncated", "tables", strings.Join(existing, ","))
	fmt.Fprintln(stdout, "Truncate completed.")
	return 0
}
