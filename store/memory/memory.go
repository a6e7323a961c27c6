// Package memory is an in-process store for development and tests. It enforces
// the same unique, check and foreign key rules as the Postgres schema.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetd/models"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/google/uuid"
)

type budgetKey struct {
	userID uuid.UUID
	month  calendar.YearMonth
}

type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]models.User
	usersByEmail  map[string]uuid.UUID
	budgets       map[uuid.UUID]models.Budget
	budgetByMonth map[budgetKey]uuid.UUID
	incomes       map[uuid.UUID]models.Income
	expenses      map[uuid.UUID]models.Expense
	now           func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]models.User),
		usersByEmail:  make(map[string]uuid.UUID),
		budgets:       make(map[uuid.UUID]models.Budget),
		budgetByMonth: make(map[budgetKey]uuid.UUID),
		incomes:       make(map[uuid.UUID]models.Income),
		expenses:      make(map[uuid.UUID]models.Expense),
		now:           time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func violation(kind store.ViolationKind, constraint string) error {
	return &store.ConstraintViolation{Kind: kind, Constraint: constraint}
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[u.Email]; exists {
		return violation(store.UniqueViolation, store.ConstraintUserEmailUnique)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	s.usersByEmail[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for bid, b := range s.budgets {
		if b.UserID == id {
			delete(s.budgetByMonth, budgetKey{b.UserID, b.Month})
			delete(s.budgets, bid)
		}
	}
	for iid, in := range s.incomes {
		if in.UserID == id {
			delete(s.incomes, iid)
		}
	}
	for eid, e := range s.expenses {
		if e.UserID == id {
			delete(s.expenses, eid)
		}
	}
	delete(s.usersByEmail, u.Email)
	delete(s.users, id)
	return nil
}

func checkBudget(b *models.Budget) error {
	if !b.Amount.IsPositive() {
		return violation(store.CheckViolation, store.ConstraintBudgetAmountPositive)
	}
	if _, err := calendar.ParseYearMonth(b.Month.String()); err != nil {
		return violation(store.CheckViolation, store.ConstraintBudgetMonthFormat)
	}
	return nil
}

func (s *Store) CreateBudget(ctx context.Context, b *models.Budget) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkBudget(b); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.UserID]; !ok {
		return violation(store.ForeignKeyViolation, "fk_budgets_user")
	}
	key := budgetKey{b.UserID, b.Month}
	if _, exists := s.budgetByMonth[key]; exists {
		return violation(store.UniqueViolation, store.ConstraintBudgetUserMonthUnique)
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := s.now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets[b.ID] = *b
	s.budgetByMonth[key] = b.ID
	return nil
}

func (s *Store) GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Store) GetBudgetByMonth(ctx context.Context, userID uuid.UUID, month calendar.YearMonth) (*models.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.budgetByMonth[budgetKey{userID, month}]
	if !ok {
		return nil, store.ErrNotFound
	}
	b := s.budgets[id]
	return &b, nil
}

// UpdateBudget replaces the stored amount. Month and owner are immutable.
func (s *Store) UpdateBudget(ctx context.Context, b *models.Budget) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.Amount.IsPositive() {
		return violation(store.CheckViolation, store.ConstraintBudgetAmountPositive)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.budgets[b.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Amount = b.Amount
	cur.UpdatedAt = s.now().UTC()
	s.budgets[b.ID] = cur
	*b = cur
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.budgetByMonth, budgetKey{b.UserID, b.Month})
	delete(s.budgets, id)
	return nil
}

func (s *Store) CreateIncome(ctx context.Context, in *models.Income) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return violation(store.CheckViolation, store.ConstraintIncomeAmountPositive)
	}
	if strings.TrimSpace(in.Source) == "" {
		return violation(store.CheckViolation, store.ConstraintIncomeSourceNonEmpty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.UserID]; !ok {
		return violation(store.ForeignKeyViolation, "fk_incomes_user")
	}
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	in.CreatedAt = s.now().UTC()
	s.incomes[in.ID] = *in
	return nil
}

func (s *Store) GetIncome(ctx context.Context, id uuid.UUID) (*models.Income, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.incomes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &in, nil
}

func (s *Store) DeleteIncome(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) ListIncomes(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Income, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Income, 0)
	for _, in := range s.incomes {
		if in.UserID == userID && in.Date.Within(start, end) {
			out = append(out, in)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return violation(store.CheckViolation, store.ConstraintExpenseAmountPositive)
	}
	if strings.TrimSpace(e.Category) == "" {
		return violation(store.CheckViolation, store.ConstraintExpenseCategoryNonEmpty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[e.UserID]; !ok {
		return violation(store.ForeignKeyViolation, "fk_expenses_user")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.now().UTC()
	s.expenses[e.ID] = cloneExpense(*e)
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	e = cloneExpense(e)
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID == userID && e.Date.Within(start, end) {
			out = append(out, cloneExpense(e))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// cloneExpense detaches the note so stored rows never alias caller memory.
func cloneExpense(e models.Expense) models.Expense {
	if e.Note != nil {
		note := *e.Note
		e.Note = &note
	}
	return e
}
