// Package report prints a month-bounded spending report for one user.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vint/models"
	"vint/pkg/ledger"
	"vint/pkg/users"
)

// Options selects the user and month (YYYY-MM) to report on. List also prints
// every manual and visible mirrored transaction of the month.
type Options struct {
	Email string
	Month string
	List  bool
}

// Run writes the report for opts to w. The per-category totals come from the
// same summary the API serves, bounded to the calendar month.
func Run(ctx context.Context, w io.Writer, db *gorm.DB, svc *ledger.Service, opts Options) error {
	user, err := users.ByEmail(ctx, db, opts.Email)
	if err != nil {
		return err
	}
	t, err := time.Parse("2006-01", opts.Month)
	if err != nil {
		return fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	window := ledger.Month(t.Year(), t.Month())

	totals, err := svc.Summary(ctx, user.ID, window)
	if err != nil {
		return err
	}

	categories := make([]string, 0, len(totals))
	for c := range totals {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	spent := decimal.Zero
	fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", user.Email, opts.Month)
	for _, c := range categories {
		fmt.Fprintf(w, "  %-16s %12s\n", c, totals[c].StringFixed(2))
		spent = spent.Add(totals[c])
	}
	fmt.Fprintf(w, "  total_spent=%s", spent.StringFixed(2))
	if user.MonthlyBudget.IsPositive() {
		fmt.Fprintf(w, " budget=%s remaining=%s", user.MonthlyBudget.StringFixed(2), user.MonthlyBudget.Sub(spent).StringFixed(2))
	}
	fmt.Fprintln(w)

	if !opts.List {
		return nil
	}
	var manual []models.Transaction
	err = db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Where(`"timestamp" >= ? AND "timestamp" < ?`, window.Start, window.End).
		Order("id").Find(&manual).Error
	if err != nil {
		return fmt.Errorf("fetch manual transactions: %w", err)
	}
	for _, m := range manual {
		fmt.Fprintf(w, "manual|%d|%s|%s|%s\n", m.ID, m.Category, m.Amount.StringFixed(2), m.Timestamp.UTC().Format(time.RFC3339))
	}

	visible, err := svc.VisibleView(ctx, user.ID)
	if err != nil {
		return err
	}
	from, to := window.Start.Format("2006-01-02"), window.End.Format("2006-01-02")
	for _, it := range visible {
		if it.Date >= from && it.Date < to {
			fmt.Fprintf(w, "bank|%s|%s|%s|%s\n", it.TransactionID, it.Category, it.Amount.StringFixed(2), it.Date)
		}
	}
	return nil
}
