package models

import (
	"time"

	"budgetd/pkg/calendar"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Income struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_incomes_user_date,priority:1"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Source    string          `gorm:"size:255;not null"`
	Date      calendar.Date   `gorm:"type:date;not null;index:idx_incomes_user_date,priority:2"`
	CreatedAt time.Time
}

func (Income) TableName() string { return "incomes" }
