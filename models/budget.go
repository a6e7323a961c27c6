package models

import (
	"time"

	"budgetd/pkg/calendar"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget is the spending limit a user sets for one calendar month.
// (UserID, Month) is unique.
type Budget struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uq_budgets_user_month,priority:1"`
	Month     calendar.YearMonth `gorm:"type:char(7);not null;uniqueIndex:uq_budgets_user_month,priority:2"`
	Amount    decimal.Decimal    `gorm:"type:numeric(14,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Budget) TableName() string { return "budgets" }
