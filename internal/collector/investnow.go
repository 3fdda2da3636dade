package collector

import (
	"context"
	"fmt"
	"net/url"

	"github.com/savings-tracker/internal/config"
	"github.com/shopspring/decimal"
)

// InvestNowCollector fetches portfolio balances from the InvestNow API.
// Authentication is a password-grant token request against the login API;
// the token is requested fresh for every cycle rather than cached, since
// cycles run at most a few times a day.
type InvestNowCollector struct {
	cfg  config.InvestNowConfig
	http *httpClient
}

// NewInvestNowCollector creates a new InvestNow collector
func NewInvestNowCollector(cfg config.InvestNowConfig, http *httpClient) *InvestNowCollector {
	return &InvestNowCollector{cfg: cfg, http: http}
}

// Platform returns the platform identifier used in ledger rows
func (c *InvestNowCollector) Platform() string {
	return "InvestNow"
}

type investNowTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type investNowTrialBalance struct {
	Holdings []struct {
		FundName string  `json:"fundName"`
		Value    float64 `json:"value"`
	} `json:"holdings"`
}

// Balances fetches the current value of every fund holding
func (c *InvestNowCollector) Balances(ctx context.Context) ([]AccountBalance, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("investnow auth: %w", err)
	}

	var trial investNowTrialBalance
	endpoint := fmt.Sprintf("%s/portfolio/trialBalance", c.cfg.APIURL)
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := c.http.getJSON(ctx, endpoint, headers, &trial); err != nil {
		return nil, fmt.Errorf("investnow trial balance: %w", err)
	}

	balances := make([]AccountBalance, 0, len(trial.Holdings))
	for _, h := range trial.Holdings {
		balances = append(balances, AccountBalance{
			Account: h.FundName,
			Amount:  decimal.NewFromFloat(h.Value),
		})
	}
	return balances, nil
}

func (c *InvestNowCollector) token(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":  {"in_client"},
		"grant_type": {"password"},
		"managerId":  {c.cfg.ManagerID},
		"username":   {c.cfg.Username},
		"password":   {c.cfg.Password},
	}

	var resp investNowTokenResponse
	if err := c.http.postForm(ctx, c.cfg.TokenURL, form, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access_token")
	}
	return resp.AccessToken, nil
}
