// Package investeasy is a client for the InvestEasy portfolio sandbox API,
// used by the house-buying analysis to open a demonstration portfolio and
// project investment growth.
package investeasy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Client is a wrapper for making authenticated calls to the InvestEasy API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient returns an InvestEasy client authenticated with the given bearer
// token. The token is a long-lived team JWT, so a static token source
// suffices; refresh is the caller's problem.
func NewClient(ctx context.Context, baseURL, token string, logger *slog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Client{
		httpClient: oauth2.NewClient(ctx, src),
		baseURL:    baseURL,
		log:        logger,
	}
}

// CreateClient creates an investment client with the given opening cash.
func (c *Client) CreateClient(ctx context.Context, name, email string, cash float64) (ClientRecord, error) {
	payload := createClientRequest{
		Name:       name,
		Email:      email,
		Cash:       cash,
		Portfolios: []string{},
	}
	var record ClientRecord
	if err := c.post(ctx, "/clients", payload, &record); err != nil {
		return record, fmt.Errorf("create client error: %w", err)
	}
	return record, nil
}

// CreatePortfolio opens a portfolio of the given type for a client.
func (c *Client) CreatePortfolio(ctx context.Context, clientID, portfolioType string, initialAmount float64) (Portfolio, error) {
	payload := createPortfolioRequest{
		Type:          portfolioType,
		InitialAmount: initialAmount,
	}
	var portfolio Portfolio
	path := fmt.Sprintf("/clients/%s/portfolios", url.PathEscape(clientID))
	if err := c.post(ctx, path, payload, &portfolio); err != nil {
		return portfolio, fmt.Errorf("create portfolio error: %w", err)
	}
	return portfolio, nil
}

// DeleteClient removes a client and its portfolios. The house analysis
// cleans up its demonstration client immediately after use.
func (c *Client) DeleteClient(ctx context.Context, clientID string) error {
	path := fmt.Sprintf("/clients/%s", url.PathEscape(clientID))
	req, err := c.newRequest(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete client error: %w", err)
	}
	return nil
}

// SimulateClient runs the API's growth simulation over the given number of
// months for all of a client's portfolios.
func (c *Client) SimulateClient(ctx context.Context, clientID string, months int) (Simulation, error) {
	payload := simulateRequest{Months: months}
	var simulation Simulation
	path := fmt.Sprintf("/client/%s/simulate", url.PathEscape(clientID))
	if err := c.post(ctx, path, payload, &simulation); err != nil {
		return simulation, fmt.Errorf("simulate client error: %w", err)
	}
	return simulation, nil
}

// post marshals payload and issues a POST, decoding the JSON response into v.
func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

// newRequest is a helper to create a new HTTP request with common headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do is a helper to execute an HTTP request and decode the JSON response.
func (c *Client) do(req *http.Request, v any) error {
	c.log.Debug("investeasy request", "method", req.Method, "url", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
