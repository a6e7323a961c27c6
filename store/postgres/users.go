package postgres

import (
	"context"

	"budgetd/models"
	"budgetd/store"

	"github.com/google/uuid"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	db, cancel := s.session(ctx)
	defer cancel()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return translate(db.Omit("Budgets", "Incomes", "Expenses").Create(u).Error)
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var u models.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// DeleteUser relies on the ON DELETE CASCADE foreign keys to remove owned records.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
