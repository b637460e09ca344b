// Package providertest provides an in-memory provider.Provider for tests.
package providertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"vint/pkg/provider"
)

// Fake serves a fixed transaction list for any access token it issued.
type Fake struct {
	mu    sync.Mutex
	txns  []provider.Transaction
	err   error
	calls int

	// LinkToken and AccessToken are returned by CreateLinkToken and ExchangePublicToken.
	LinkToken   string
	AccessToken string
	// LastAccessToken is the credential seen by the most recent Transactions call.
	LastAccessToken string
	// Delay makes Transactions wait this long, or until the context is done.
	Delay time.Duration
}

func New(txns ...provider.Transaction) *Fake {
	return &Fake{txns: txns, LinkToken: "link-sandbox-test", AccessToken: "access-sandbox-test"}
}

// SetTransactions replaces what the next Transactions call returns.
func (f *Fake) SetTransactions(txns ...provider.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txns = txns
}

// Fail makes every subsequent call return err; nil restores normal behaviour.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls reports how many times Transactions was invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.LinkToken, nil
}

func (f *Fake) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if publicToken == "" {
		return "", fmt.Errorf("INVALID_PUBLIC_TOKEN: empty public token")
	}
	return f.AccessToken, nil
}

// Transactions ignores the window and returns every configured transaction.
func (f *Fake) Transactions(ctx context.Context, accessToken string, start, end time.Time) ([]provider.Transaction, error) {
	f.mu.Lock()
	f.calls++
	f.LastAccessToken = accessToken
	delay := f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]provider.Transaction, len(f.txns))
	copy(out, f.txns)
	return out, nil
}

// Txn builds a provider transaction dated at midnight UTC of the given day.
func Txn(id, amount, category string, date time.Time) provider.Transaction {
	return provider.Transaction{
		ID:              id,
		Amount:          decimal.RequireFromString(amount),
		Name:            "txn " + id,
		Date:            time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		PrimaryCategory: category,
	}
}
