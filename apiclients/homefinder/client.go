// Package homefinder searches for-sale house listings sized to a buyer's
// downpayment, and carries the mortgage affordability arithmetic used by the
// house analysis endpoints.
package homefinder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-querystring/query"
)

// maxResults caps how many listings a search returns, largest first.
const maxResults = 3

// Client is a wrapper for making calls to the listing search API. The API is
// keyed rather than token-authenticated, so a plain http.Client is used with
// the key set per request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *slog.Logger
}

// NewClient makes a homefinder Client. A nil httpClient selects
// http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		log:        logger,
	}
}

// searchParams are the listing search query parameters.
type searchParams struct {
	Location   string `url:"location"`
	StatusType string `url:"status_type"`
	PriceMin   int    `url:"price_min"`
	PriceMax   int    `url:"price_max"`
}

// searchResponse is the wire shape of a listing search response.
type searchResponse struct {
	Props []Listing `json:"props"`
}

// Search finds for-sale listings around the price the downpayment can carry
// (downpayment times leverage, plus or minus ten percent). Results are
// post-filtered to listings in the requested city with an image, and the
// largest few by living area are returned.
func (c *Client) Search(ctx context.Context, location string, downpayment, leverage float64) ([]Listing, error) {

	if leverage <= 0 {
		leverage = 5
	}
	target := downpayment * leverage
	minPrice := int(target * 0.9)
	maxPrice := int(target * 1.1)

	values, err := query.Values(searchParams{
		Location:   location,
		StatusType: "ForSale",
		PriceMin:   minPrice,
		PriceMax:   maxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("search params encoding error: %w", err)
	}
	requestURL := fmt.Sprintf("%s/propertyExtendedSearch?%s", c.baseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	if u, err := url.Parse(c.baseURL); err == nil {
		req.Header.Set("x-rapidapi-host", u.Host)
	}

	c.log.Debug("listing search", "location", location, "price_min", minPrice, "price_max", maxPrice)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// The search endpoint is loose about price bounds and location, so
	// re-filter before ranking.
	city := strings.ToLower(strings.TrimSpace(strings.Split(location, ",")[0]))
	var filtered []Listing
	for _, listing := range response.Props {
		if listing.Price < float64(minPrice) || listing.Price > float64(maxPrice) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(listing.Address), city) {
			continue
		}
		if listing.ImageURL == "" {
			continue
		}
		filtered = append(filtered, listing)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LivingArea > filtered[j].LivingArea
	})
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	return filtered, nil
}
