package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

// RateFeedClient reads provider quotes from an HTTP rate feed.
type RateFeedClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRateFeedClient(baseURL string) *RateFeedClient {
	return &RateFeedClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// FeedSnapshot is the wire format served at GET /quotes.
type FeedSnapshot struct {
	Providers []FeedProvider `json:"providers"`
}

type FeedProvider struct {
	Name        string          `json:"name"`
	Priority    int             `json:"priority"`
	Active      bool            `json:"active"`
	Reliability decimal.Decimal `json:"reliability"`
	Quotes      []FeedQuote     `json:"quotes"`
}

type FeedQuote struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Rate       decimal.Decimal  `json:"rate"`
	Bid        *decimal.Decimal `json:"bid,omitempty"`
	Ask        *decimal.Decimal `json:"ask,omitempty"`
	Mid        *decimal.Decimal `json:"mid,omitempty"`
	Type       string           `json:"type"`
	Timestamp  time.Time        `json:"timestamp"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
}

func (c *RateFeedClient) FetchQuotes(ctx context.Context) (*FeedSnapshot, error) {
	log := logging.FromContext(ctx)

	url := c.baseURL + "/quotes"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchQuotes: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FetchQuotes: send: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("rate feed response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("FetchQuotes: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var snap FeedSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("FetchQuotes: decode: %w", err)
	}
	return &snap, nil
}
