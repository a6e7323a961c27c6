package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Email is unique and compared case-sensitively.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email          string    `gorm:"size:255;not null;uniqueIndex:uq_users_email"`
	HashedPassword []byte    `gorm:"not null" json:"-"`
	FullName       string    `gorm:"size:255;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Budgets        []Budget  `gorm:"constraint:OnDelete:CASCADE;"`
	Incomes        []Income  `gorm:"constraint:OnDelete:CASCADE;"`
	Expenses       []Expense `gorm:"constraint:OnDelete:CASCADE;"`
}

func (User) TableName() string { return "users" }
