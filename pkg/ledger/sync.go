package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vint/models"
	"vint/pkg/apperr"
	"vint/pkg/provider"
)

// SyncResult counts what one sync did with the fetched window.
type SyncResult struct {
	Fetched         int `json:"fetched"`
	Inserted        int `json:"inserted"`
	SkippedExisting int `json:"skipped_existing"`
	SkippedHidden   int `json:"skipped_hidden"`
}

// Sync pulls the provider's transactions dated within [start, end] and mirrors the
// ones the user has neither mirrored nor hidden. The provider is called before any
// database work; the new rows are then written in a single transaction, so a failed
// sync leaves the mirror untouched.
func (s *Service) Sync(ctx context.Context, user *models.User, start, end time.Time) (SyncResult, error) {
	var res SyncResult
	if !user.LedgerLinked() {
		return res, apperr.Validation("ledger account not linked")
	}
	if end.Before(start) {
		return res, apperr.Validation("sync window ends before it starts")
	}
	token, err := s.box.Open(user.LedgerAccessToken)
	if err != nil {
		return res, apperr.Internal(err, "open ledger credential")
	}

	fetched, err := s.fetch(ctx, token, start, end)
	if err != nil {
		s.log.WithField("user_id", user.ID).WithError(err).Warn("ledger provider fetch failed")
		return res, apperr.Upstream(err, "ledger provider")
	}
	res.Fetched = len(fetched)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mirrored, err := providerIDs(tx, &models.ExternalTransaction{}, user.ID)
		if err != nil {
			return err
		}
		hidden, err := providerIDs(tx, &models.Tombstone{}, user.ID)
		if err != nil {
			return err
		}

		rows := make([]models.ExternalTransaction, 0, len(fetched))
		seen := make(map[string]struct{}, len(fetched))
		for _, t := range fetched {
			if _, dup := seen[t.ID]; dup {
				res.SkippedExisting++
				continue
			}
			seen[t.ID] = struct{}{}
			if _, ok := hidden[t.ID]; ok {
				res.SkippedHidden++
				continue
			}
			if _, ok := mirrored[t.ID]; ok {
				res.SkippedExisting++
				continue
			}
			rows = append(rows, mirrorRow(user.ID, t))
		}
		if len(rows) == 0 {
			return nil
		}

		// a concurrent sync may have inserted some of these already
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, syncBatchSize)
		if created.Error != nil {
			return fmt.Errorf("insert mirror rows: %w", created.Error)
		}
		res.Inserted = int(created.RowsAffected)
		res.SkippedExisting += len(rows) - res.Inserted
		return nil
	})
	if err != nil {
		return SyncResult{}, apperr.Internal(err, "sync ledger")
	}

	s.log.WithFields(logrus.Fields{
		"user_id":          user.ID,
		"fetched":          res.Fetched,
		"inserted":         res.Inserted,
		"skipped_existing": res.SkippedExisting,
		"skipped_hidden":   res.SkippedHidden,
	}).Info("ledger sync complete")
	return res, nil
}

func (s *Service) fetch(ctx context.Context, token string, start, end time.Time) ([]provider.Transaction, error) {
	ctx, cancel := s.providerContext(ctx)
	defer cancel()
	return s.provider.Transactions(ctx, token, start, end)
}

func mirrorRow(userID uint, t provider.Transaction) models.ExternalTransaction {
	row := models.ExternalTransaction{
		UserID:        userID,
		ProviderTxnID: t.ID,
		Amount:        t.Amount.Round(2),
		Category:      provider.MapCategory(t.PrimaryCategory),
		Date:          dayOf(t.Date),
	}
	if t.Name != "" {
		name := t.Name
		row.Description = &name
	}
	return row
}
