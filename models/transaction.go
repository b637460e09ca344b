package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a user-entered financial event. Positive amounts are money
// leaving the user (spending), negative amounts are money coming in.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"-"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category    string          `gorm:"size:64;not null;index" json:"category"`
	Description *string         `gorm:"size:255" json:"description"`
	Timestamp   time.Time       `gorm:"index;not null" json:"timestamp"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}
