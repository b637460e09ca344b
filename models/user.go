package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the identity anchor; every other row belongs to one.
type User struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Email         string          `gorm:"size:255;not null;uniqueIndex"`
	Phone         *string         `gorm:"size:64;uniqueIndex"`
	MonthlyBudget decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	// LedgerAccessToken is the provider credential, encrypted when a key is configured.
	LedgerAccessToken string `gorm:"size:512" json:"-"`
	Transactions      []Transaction         `json:"-"`
	External          []ExternalTransaction `json:"-"`
}

// LedgerLinked reports whether the user completed the ledger provider link flow.
func (u *User) LedgerLinked() bool {
	return u.LedgerAccessToken != ""
}
