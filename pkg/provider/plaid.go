package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/plaid/plaid-go/v29/plaid"
	"github.com/shopspring/decimal"
)

const (
	plaidDateLayout = "2006-01-02"
	plaidPageSize   = 500
)

// Plaid talks to the Plaid API. One instance is built at startup and handed to
// the services that need it.
type Plaid struct {
	client     *plaid.APIClient
	clientName string
}

func NewPlaid(clientID, secret, env, clientName string) *Plaid {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	if env == "production" {
		cfg.UseEnvironment(plaid.Production)
	} else {
		cfg.UseEnvironment(plaid.Sandbox)
	}
	return &Plaid{client: plaid.NewAPIClient(cfg), clientName: clientName}
}

func (p *Plaid) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{ClientUserId: clientUserID}
	req := plaid.NewLinkTokenCreateRequest(p.clientName, "en", []plaid.CountryCode{plaid.COUNTRYCODE_US}, user)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := p.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", describe(err)
	}
	return resp.GetLinkToken(), nil
}

func (p *Plaid) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := p.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", describe(err)
	}
	return resp.GetAccessToken(), nil
}

// Transactions pages through /transactions/get until every transaction in the
// window has been read.
func (p *Plaid) Transactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error) {
	startDate, endDate := start.Format(plaidDateLayout), end.Format(plaidDateLayout)

	var out []Transaction
	var offset int32
	for {
		opts := plaid.NewTransactionsGetRequestOptions()
		opts.SetCount(plaidPageSize)
		opts.SetOffset(offset)
		req := plaid.NewTransactionsGetRequest(accessToken, startDate, endDate)
		req.SetOptions(*opts)

		resp, _, err := p.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
		if err != nil {
			return nil, describe(err)
		}
		page := resp.GetTransactions()
		for _, t := range page {
			tx, err := fromPlaid(t)
			if err != nil {
				return nil, err
			}
			out = append(out, tx)
		}
		offset += int32(len(page))
		if len(page) == 0 || offset >= resp.GetTotalTransactions() {
			return out, nil
		}
	}
}

func fromPlaid(t plaid.Transaction) (Transaction, error) {
	date, err := time.Parse(plaidDateLayout, t.GetDate())
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: bad date %q: %w", t.GetTransactionId(), t.GetDate(), err)
	}
	pfc := t.GetPersonalFinanceCategory()
	return Transaction{
		ID:              t.GetTransactionId(),
		Amount:          decimal.NewFromFloat(t.GetAmount()).Round(2),
		Name:            t.GetName(),
		Date:            date,
		PrimaryCategory: pfc.GetPrimary(),
	}, nil
}

// describe turns a Plaid API error into one carrying Plaid's own code and message.
func describe(err error) error {
	perr, convErr := plaid.ToPlaidError(err)
	if convErr != nil || perr.ErrorCode == "" {
		return err
	}
	return fmt.Errorf("%s: %s", perr.ErrorCode, perr.ErrorMessage)
}
