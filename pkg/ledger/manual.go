package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vint/models"
	"vint/pkg/apperr"
)

// ManualInput is a new user-entered transaction. Timestamp defaults to now.
type ManualInput struct {
	Amount      decimal.Decimal
	Category    string
	Description *string
	Timestamp   *time.Time
}

// ManualPatch changes the given fields of a manual transaction; nil fields are kept.
type ManualPatch struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
}

func (s *Service) CreateManual(ctx context.Context, userID uint, in ManualInput) (*models.Transaction, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, apperr.Validation("category is required")
	}
	ts := s.now().UTC()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = in.Timestamp.UTC()
	}
	txn := &models.Transaction{
		UserID:      userID,
		Amount:      in.Amount.Round(2),
		Category:    category,
		Description: in.Description,
		Timestamp:   ts,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, apperr.Internal(err, "create transaction")
	}
	return txn, nil
}

// ListManual returns the user's manual transactions, newest first.
func (s *Service) ListManual(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, apperr.Internal(err, "list transactions")
	}
	return txns, nil
}

// GetManual loads one transaction; another user's transaction is reported as not found.
func (s *Service) GetManual(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	return getManual(s.db.WithContext(ctx), userID, id)
}

func getManual(tx *gorm.DB, userID, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("transaction not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load transaction")
	}
	return &txn, nil
}

func (s *Service) UpdateManual(ctx context.Context, userID, id uint, patch ManualPatch) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, err := getManual(tx, userID, id)
		if err != nil {
			return err
		}
		if patch.Amount != nil {
			txn.Amount = patch.Amount.Round(2)
		}
		if patch.Category != nil {
			category := strings.TrimSpace(*patch.Category)
			if category == "" {
				return apperr.Validation("category cannot be empty")
			}
			txn.Category = category
		}
		if patch.Description != nil {
			txn.Description = patch.Description
		}
		if err := tx.Save(txn).Error; err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "update transaction")
	}
	return out, nil
}

// DeleteManual removes the transaction permanently.
func (s *Service) DeleteManual(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
	if res.Error != nil {
		return apperr.Internal(res.Error, "delete transaction")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("transaction not found")
	}
	return nil
}
