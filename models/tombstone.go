package models

import "time"

// Tombstone records that a user hid a provider transaction. It is matched to the
// mirror by (user, provider id), not by foreign key, so it survives re-sync and purge.
type Tombstone struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_tomb_user_txn"`
	ProviderTxnID string    `gorm:"column:provider_txn_id;size:128;not null;uniqueIndex:idx_tomb_user_txn"`
	HiddenAt      time.Time `gorm:"not null"`
}
