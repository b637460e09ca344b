package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vint/models"
	"vint/pkg/apperr"
)

// ExternalItem is a mirrored transaction as the user sees it.
type ExternalItem struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Description   *string         `json:"description"`
	Date          string          `json:"date"`
	Hidden        bool            `json:"hidden"`
}

// ExternalView returns every mirrored transaction of the user, hidden ones
// included and flagged, ordered by date descending then provider id.
func (s *Service) ExternalView(ctx context.Context, userID uint) ([]ExternalItem, error) {
	items, err := externalView(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, apperr.Internal(err, "list external transactions")
	}
	return items, nil
}

// VisibleView is ExternalView without the hidden transactions.
func (s *Service) VisibleView(ctx context.Context, userID uint) ([]ExternalItem, error) {
	all, err := s.ExternalView(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := make([]ExternalItem, 0, len(all))
	for _, it := range all {
		if !it.Hidden {
			visible = append(visible, it)
		}
	}
	return visible, nil
}

func externalView(tx *gorm.DB, userID uint) ([]ExternalItem, error) {
	var rows []models.ExternalTransaction
	err := tx.Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Order("provider_txn_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	hidden, err := providerIDs(tx, &models.Tombstone{}, userID)
	if err != nil {
		return nil, err
	}

	items := make([]ExternalItem, 0, len(rows))
	for _, r := range rows {
		_, isHidden := hidden[r.ProviderTxnID]
		items = append(items, ExternalItem{
			TransactionID: r.ProviderTxnID,
			Amount:        r.Amount,
			Category:      r.Category,
			Description:   r.Description,
			Date:          r.Date.UTC().Format(dateLayout),
			Hidden:        isHidden,
		})
	}
	return items, nil
}
