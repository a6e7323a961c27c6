package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// AppTables lists the tables owned by the service, children first.
var AppTables = []string{"expenses", "incomes", "budgets", "users"}

var tableNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ExistingTables filters names down to valid identifiers present in the public schema.
func (s *Store) ExistingTables(ctx context.Context, names []string) ([]string, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !tableNameRE.MatchString(n) {
			continue
		}
		var cnt int64
		if err := db.Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", n).Scan(&cnt).Error; err != nil {
			return nil, fmt.Errorf("lookup table %s: %w", n, err)
		}
		if cnt > 0 {
			out = append(out, n)
		}
	}
	return out, nil
}

// Truncate empties the given tables. Callers pass names obtained from ExistingTables.
func (s *Store) Truncate(ctx context.Context, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		if !tableNameRE.MatchString(t) {
			return fmt.Errorf("invalid table name %q", t)
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	db, cancel := s.session(ctx)
	defer cancel()
	stmt := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(quoted, ", "))
	return db.Exec(stmt).Error
}
