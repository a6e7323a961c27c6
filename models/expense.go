package models

import (
	"time"

	"budgetd/pkg/calendar"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Category  string          `gorm:"size:100;not null"`
	Date      calendar.Date   `gorm:"type:date;not null;index:idx_expenses_user_date,priority:2"`
	Note      *string         `gorm:"type:text"`
	CreatedAt time.Time
}

func (Expense) TableName() string { return "expenses" }
