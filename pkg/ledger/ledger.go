// Package ledger reconciles a user's manual transactions with the bank transactions
// mirrored from the ledger provider, tracks which mirrored transactions the user hid,
// and aggregates both streams into per-category spending totals.
//
// Sign convention: a positive amount is money leaving the user (spending), a
// negative amount is money coming in. Mirrored amounts are stored as the provider
// reports them, which already follows this convention.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vint/pkg/apperr"
	"vint/pkg/logging"
	"vint/pkg/provider"
	"vint/pkg/secretbox"
)

const (
	defaultProviderTimeout = 15 * time.Second
	syncBatchSize          = 200
	dateLayout             = "2006-01-02"
)

type Options struct {
	// ProviderTimeout bounds each call to the ledger provider.
	ProviderTimeout time.Duration
}

// Service owns every read and write of manual, mirrored and tombstoned transactions.
type Service struct {
	db       *gorm.DB
	provider provider.Provider
	box      *secretbox.Box
	timeout  time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService builds a Service. A nil box stores provider credentials as given; a
// nil logger discards output.
func NewService(db *gorm.DB, p provider.Provider, box *secretbox.Box, opts Options, log logrus.FieldLogger) *Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if box == nil {
		box = &secretbox.Box{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		db:       db,
		provider: p,
		box:      box,
		timeout:  opts.ProviderTimeout,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// providerIDs returns the set of provider transaction ids the user has in the
// table behind model (mirror or tombstones).
func providerIDs(tx *gorm.DB, model interface{}, userID uint) (map[string]struct{}, error) {
	var ids []string
	if err := tx.Model(model).Where("user_id = ?", userID).Pluck("provider_txn_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load provider ids: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// storeErr passes apperr values through and wraps everything else as internal.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*apperr.Error); ok {
		return err
	}
	return apperr.Internal(err, what)
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
