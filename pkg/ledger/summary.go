package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vint/models"
	"vint/pkg/apperr"
)

// Window scopes a summary. End is exclusive; a zero End leaves the window open.
type Window struct {
	Start time.Time
	End   time.Time
}

// SinceDays is the rolling window covering the last n days up to now.
func SinceDays(now time.Time, n int) Window {
	return Window{Start: now.UTC().AddDate(0, 0, -n)}
}

// MonthToDate starts at midnight UTC on the first of now's month.
func MonthToDate(now time.Time) Window {
	now = now.UTC()
	return Window{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// Month covers one whole calendar month.
func Month(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// Totals maps a category to the amount spent in it.
type Totals map[string]decimal.Decimal

type categoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// Summary totals the user's spending (positive amounts) per category across
// manual transactions and visible mirrored transactions within w.
func (s *Service) Summary(ctx context.Context, userID uint, w Window) (Totals, error) {
	var manual, external Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		manual, err = s.manualTotals(gctx, userID, w)
		return err
	})
	g.Go(func() error {
		var err error
		external, err = s.externalTotals(gctx, userID, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "compute summary")
	}
	return Merge(manual, external), nil
}

func (s *Service) manualTotals(ctx context.Context, userID uint, w Window) (Totals, error) {
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("category, amount").
		Where("user_id = ? AND amount > 0", userID).
		Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: w.Start.UTC()})
	if !w.End.IsZero() {
		q = q.Where(clause.Lt{Column: clause.Column{Name: "timestamp"}, Value: w.End.UTC()})
	}
	return sumRows(q, "manual")
}

// externalTotals compares on whole days because mirror rows carry a date, not an
// instant. Tombstones are excluded with a subquery, so an empty tombstone set
// excludes nothing.
func (s *Service) externalTotals(ctx context.Context, userID uint, w Window) (Totals, error) {
	db := s.db.WithContext(ctx)
	tombstoned := db.Model(&models.Tombstone{}).Select("provider_txn_id").Where("user_id = ?", userID)
	q := db.Model(&models.ExternalTransaction{}).
		Select("category, amount").
		Where("user_id = ? AND amount > 0", userID).
		Where(clause.Gte{Column: clause.Column{Name: "date"}, Value: dayOf(w.Start)}).
		Where("provider_txn_id NOT IN (?)", tombstoned)
	if !w.End.IsZero() {
		q = q.Where(clause.Lt{Column: clause.Column{Name: "date"}, Value: w.End.UTC()})
	}
	return sumRows(q, "external")
}

// sumRows adds amounts in Go so totals are exact whatever numeric type the
// database hands back.
func sumRows(q *gorm.DB, source string) (Totals, error) {
	var rows []categoryAmount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s totals: %w", source, err)
	}
	totals := make(Totals)
	for _, r := range rows {
		totals[r.Category] = totals[r.Category].Add(r.Amount)
	}
	return totals, nil
}

// Merge adds the totals of every map per category.
func Merge(maps ...Totals) Totals {
	out := make(Totals)
	for _, m := range maps {
		for category, amount := range m {
			out[category] = out[category].Add(amount)
		}
	}
	return out
}
