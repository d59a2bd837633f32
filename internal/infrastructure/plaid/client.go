// Package plaid handles communication with the account aggregation
// provider's API.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout = 60 * time.Second

	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	itemGetPath      = "/item/get"
	institutionsPath = "/institutions/get_by_id"
	accountsPath     = "/accounts/balance/get"
	itemRemovePath   = "/item/remove"
)

// envBaseURLs maps the configured provider environment to its base URL.
var envBaseURLs = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// Client handles communication with the aggregation provider API.
// Calls authenticate with the client credentials carried in each
// request body, per the provider's convention.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	secret      string
	clientName  string
	countryCode string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new aggregation provider client. Unknown
// environments fall back to sandbox.
func NewClient(clientID, secret, environment, clientName string) *Client {
	baseURL, ok := envBaseURLs[environment]
	if !ok {
		baseURL = envBaseURLs["sandbox"]
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:     baseURL,
		clientID:    clientID,
		secret:      secret,
		clientName:  clientName,
		countryCode: "US",
	}
}

// ExchangeResult is the outcome of a public token exchange: the
// long-lived access secret and the stable item identifier.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// Institution identifies the financial institution behind an item.
type Institution struct {
	ID   string
	Name string
}

// Balances carries the two balance readings the provider reports.
// Available may be absent (credit-type accounts, typically).
type Balances struct {
	Current         *decimal.Decimal `json:"current"`
	Available       *decimal.Decimal `json:"available"`
	ISOCurrencyCode *string          `json:"iso_currency_code"`
}

// Account is one financial account as reported by the provider.
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Balances     Balances `json:"balances"`
}

// errorResponse is the provider's error envelope.
type errorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// CreateLinkToken creates a short-lived link token for initializing the
// provider's account-linking widget for the given user.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	body := map[string]any{
		"client_id":     c.clientID,
		"secret":        c.secret,
		"client_name":   c.clientName,
		"language":      "en",
		"country_codes": []string{c.countryCode},
		"products":      []string{"transactions"},
		"user": map[string]string{
			"client_user_id": userID,
		},
	}

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, linkTokenPath, body, &resp); err != nil {
		return "", err
	}

	return resp.LinkToken, nil
}

// ExchangePublicToken exchanges the widget's public token for the
// long-lived access token and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"public_token": publicToken,
	}

	var result ExchangeResult
	if err := c.post(ctx, exchangePath, body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetItemInstitution resolves the institution behind an item: the item
// lookup yields the institution id, the institution lookup its name.
func (c *Client) GetItemInstitution(ctx context.Context, accessToken string) (*Institution, error) {
	itemBody := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}

	var itemResp struct {
		Item struct {
			InstitutionID string `json:"institution_id"`
		} `json:"item"`
	}
	if err := c.post(ctx, itemGetPath, itemBody, &itemResp); err != nil {
		return nil, err
	}

	if itemResp.Item.InstitutionID == "" {
		return &Institution{}, nil
	}

	instBody := map[string]any{
		"client_id":      c.clientID,
		"secret":         c.secret,
		"institution_id": itemResp.Item.InstitutionID,
		"country_codes":  []string{c.countryCode},
	}

	var instResp struct {
		Institution struct {
			Name string `json:"name"`
		} `json:"institution"`
	}
	if err := c.post(ctx, institutionsPath, instBody, &instResp); err != nil {
		return nil, err
	}

	return &Institution{
		ID:   itemResp.Item.InstitutionID,
		Name: instResp.Institution.Name,
	}, nil
}

// GetAccounts fetches the accounts and current balances for an item.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}

	var resp struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.post(ctx, accountsPath, body, &resp); err != nil {
		return nil, err
	}

	return resp.Accounts, nil
}

// RemoveItem invalidates an item's access token at the provider.
func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	body := map[string]any{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}

	return c.post(ctx, itemRemovePath, body, nil)
}

// post performs one JSON request against the provider API. Non-200
// statuses are decoded from the provider's error envelope.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return fmt.Errorf("provider request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("provider error (status %d): %s - %s", resp.StatusCode, errResp.ErrorCode, errResp.ErrorMessage)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
