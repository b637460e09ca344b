package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalTransaction is a mirror row: a bank transaction pulled from the ledger
// provider. It is written once by sync and never updated; whether the user hid it
// lives in Tombstone, not here.
type ExternalTransaction struct {
	ID            uint            `gorm:"primaryKey"`
	CreatedAt     time.Time
	UserID        uint            `gorm:"not null;uniqueIndex:idx_ext_user_txn"`
	ProviderTxnID string          `gorm:"column:provider_txn_id;size:128;not null;uniqueIndex:idx_ext_user_txn"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Category      string          `gorm:"size:64;not null"`
	Description   *string         `gorm:"size:255"`
	Date          time.Time       `gorm:"index;not null"` // calendar date, midnight UTC
}
