package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrUnavailable means the price feed could not be reached or returned
// data we cannot price a session from. Sessions must never be created
// with an undefined price, so callers treat this as a hard failure.
var ErrUnavailable = errors.New("pricing unavailable")

// Client fetches spot rates from a CoinGecko-compatible simple price API.
type Client struct {
	baseURL       string
	assetId       string
	quoteCurrency string
	httpClient    *http.Client
}

func NewClient(baseURL, assetId, quoteCurrency string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		assetId:       assetId,
		quoteCurrency: quoteCurrency,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// GetRate returns the current fiat price of one token unit.
func (c *Client) GetRate(ctx context.Context) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(c.assetId), url.QueryEscape(c.quoteCurrency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Price feed unreachable", zap.Error(err))
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close price response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("Price feed returned non-OK status", zap.Int("status", resp.StatusCode))
		return decimal.Zero, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	// Response shape: {"<asset>":{"<currency>":123.45}}
	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	rate, ok := payload[c.assetId][c.quoteCurrency]
	if !ok || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: no %s/%s rate in response", ErrUnavailable, c.assetId, c.quoteCurrency)
	}

	return rate, nil
}
