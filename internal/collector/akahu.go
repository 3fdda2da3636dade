package collector

import (
	"context"
	"fmt"

	"github.com/savings-tracker/internal/config"
	"github.com/shopspring/decimal"
)

// AkahuCollector fetches bank account balances through the Akahu
// account-aggregation API. One Akahu app can span several connected banks;
// the connection name becomes the account label so each bank account stays
// its own ledger series.
type AkahuCollector struct {
	cfg  config.AkahuConfig
	http *httpClient
}

// NewAkahuCollector creates a new Akahu collector
func NewAkahuCollector(cfg config.AkahuConfig, http *httpClient) *AkahuCollector {
	return &AkahuCollector{cfg: cfg, http: http}
}

// Platform returns the platform identifier used in ledger rows
func (c *AkahuCollector) Platform() string {
	return "Akahu"
}

type akahuAccountsResponse struct {
	Items []struct {
		Name    string `json:"name"`
		Balance struct {
			Current float64 `json:"current"`
		} `json:"balance"`
	} `json:"items"`
}

// Balances fetches the current balance of every connected account
func (c *AkahuCollector) Balances(ctx context.Context) ([]AccountBalance, error) {
	headers := map[string]string{
		"X-Akahu-ID":    c.cfg.AppID,
		"Authorization": "Bearer " + c.cfg.Token,
	}

	var resp akahuAccountsResponse
	if err := c.http.getJSON(ctx, c.cfg.BaseURL+"/accounts", headers, &resp); err != nil {
		return nil, fmt.Errorf("akahu accounts: %w", err)
	}

	balances := make([]AccountBalance, 0, len(resp.Items))
	for _, item := range resp.Items {
		balances = append(balances, AccountBalance{
			Account: item.Name,
			Amount:  decimal.NewFromFloat(item.Balance.Current),
		})
	}
	return balances, nil
}
