package postgres

import (
	"context"

	"budgetd/models"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/google/uuid"
)

func (s *Store) CreateIncome(ctx context.Context, in *models.Income) error {
	db, cancel := s.session(ctx)
	defer cancel()
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	return translate(db.Create(in).Error)
}

func (s *Store) GetIncome(ctx context.Context, id uuid.UUID) (*models.Income, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var in models.Income
	if err := db.Where("id = ?", id).First(&in).Error; err != nil {
		return nil, translate(err)
	}
	return &in, nil
}

func (s *Store) DeleteIncome(ctx context.Context, id uuid.UUID) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&models.Income{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListIncomes(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Income, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	out := make([]models.Income, 0)
	err := db.Where("user_id = ? AND date >= ? AND date < ?", userID, start.Time, end.Time).
		Order("date, created_at").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	db, cancel := s.session(ctx)
	defer cancel()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return translate(db.Create(e).Error)
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var e models.Expense
	if err := db.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&models.Expense{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID, start, end calendar.Date) ([]models.Expense, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	out := make([]models.Expense, 0)
	err := db.Where("user_id = ? AND date >= ? AND date < ?", userID, start.Time, end.Time).
		Order("date, created_at").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
