package postgres

import (
	"context"
	"time"

	"budgetd/models"
	"budgetd/pkg/calendar"
	"budgetd/store"

	"github.com/google/uuid"
)

func (s *Store) CreateBudget(ctx context.Context, b *models.Budget) error {
	db, cancel := s.session(ctx)
	defer cancel()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return translate(db.Create(b).Error)
}

func (s *Store) GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var b models.Budget
	if err := db.Where("id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *Store) GetBudgetByMonth(ctx context.Context, userID uuid.UUID, month calendar.YearMonth) (*models.Budget, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var b models.Budget
	if err := db.Where("user_id = ? AND month = ?", userID, month.String()).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// UpdateBudget writes the amount only and reloads the row into b.
func (s *Store) UpdateBudget(ctx context.Context, b *models.Budget) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Model(&models.Budget{}).Where("id = ?", b.ID).Updates(map[string]any{
		"amount":     b.Amount,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return translate(db.Where("id = ?", b.ID).First(b).Error)
}

func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&models.Budget{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
