// Package provider is the ledger provider capability: the external financial-data
// aggregation service that links bank accounts and lists their transactions.
package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a bank transaction as reported by the provider.
type Transaction struct {
	ID     string
	Amount decimal.Decimal // positive = money out of the account
	Name   string
	Date   time.Time
	// PrimaryCategory is the provider's category hint; empty when the provider sent none.
	PrimaryCategory string
}

// Provider is implemented by Plaid in production and by providertest.Fake in tests.
type Provider interface {
	// CreateLinkToken returns a short-lived token the client uses to start the link flow.
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	// ExchangePublicToken trades the link flow's public token for a durable access credential.
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	// Transactions lists every transaction dated within [start, end].
	Transactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error)
}
