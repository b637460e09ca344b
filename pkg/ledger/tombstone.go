package ledger

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vint/models"
	"vint/pkg/apperr"
)

// Hide tombstones a mirrored transaction. The mirror row is left as is; the
// tombstone alone keeps it out of the visible list, the summary and later syncs.
func (s *Service) Hide(ctx context.Context, userID uint, providerID string) ([]ExternalItem, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, apperr.Validation("transaction id is required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMirrored(tx, userID, providerID); err != nil {
			return err
		}
		hidden, err := isHidden(tx, userID, providerID)
		if err != nil {
			return err
		}
		if hidden {
			return apperr.Conflict("transaction already hidden")
		}
		tomb := models.Tombstone{UserID: userID, ProviderTxnID: providerID, HiddenAt: s.now().UTC()}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tomb)
		if res.Error != nil {
			return res.Error
		}
		// lost a race with a concurrent hide
		if res.RowsAffected == 0 {
			return apperr.Conflict("transaction already hidden")
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "hide transaction")
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": providerID}).Info("external transaction hidden")
	return s.ExternalView(ctx, userID)
}

// Restore removes the tombstone of a hidden transaction.
func (s *Service) Restore(ctx context.Context, userID uint, providerID string) ([]ExternalItem, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, apperr.Validation("transaction id is required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMirrored(tx, userID, providerID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND provider_txn_id = ?", userID, providerID).Delete(&models.Tombstone{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("transaction is not hidden")
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "restore transaction")
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": providerID}).Info("external transaction restored")
	return s.ExternalView(ctx, userID)
}

// RestoreAll removes every tombstone of the user and returns how many there were.
func (s *Service) RestoreAll(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Tombstone{})
	if res.Error != nil {
		return 0, apperr.Internal(res.Error, "restore all transactions")
	}
	if res.RowsAffected > 0 {
		s.log.WithFields(logrus.Fields{"user_id": userID, "restored": res.RowsAffected}).Info("external transactions restored")
	}
	return res.RowsAffected, nil
}

// Purge physically deletes a mirror row. A tombstone for the same id is kept, so
// a purged hidden transaction is still not imported again; a purged visible one
// comes back on the next sync that covers its date.
func (s *Service) Purge(ctx context.Context, userID uint, providerID string) ([]ExternalItem, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, apperr.Validation("transaction id is required")
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND provider_txn_id = ?", userID, providerID).
		Delete(&models.ExternalTransaction{})
	if res.Error != nil {
		return nil, apperr.Internal(res.Error, "purge transaction")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("transaction not found")
	}
	return s.ExternalView(ctx, userID)
}

func requireMirrored(tx *gorm.DB, userID uint, providerID string) error {
	var n int64
	err := tx.Model(&models.ExternalTransaction{}).
		Where("user_id = ? AND provider_txn_id = ?", userID, providerID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("transaction not found")
	}
	return nil
}

func isHidden(tx *gorm.DB, userID uint, providerID string) (bool, error) {
	var n int64
	err := tx.Model(&models.Tombstone{}).
		Where("user_id = ? AND provider_txn_id = ?", userID, providerID).
		Count(&n).Error
	return n > 0, err
}
