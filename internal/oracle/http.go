package oracle

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prediction-venue/internal/models"

	"github.com/shopspring/decimal"
)

// HTTP queries an external resolution service:
//
//	GET {base}/markets/{id}/price      -> {"price": "650000000000000000", "timestamp": 1700000000}
//	GET {base}/markets/{id}/resolution -> {"settled": true, "outcome": 1}
//
// Requests are signed with HMAC-SHA256 when a secret is configured.
type HTTP struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secret     string
}

var errUnknownMarket = errors.New("oracle: unknown market")

type priceResponse struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
}

type resolutionResponse struct {
	Settled bool  `json:"settled"`
	Outcome uint8 `json:"outcome"`
}

func NewHTTP(baseURL, apiKey, secret string, timeout time.Duration) *HTTP {
	return &HTTP{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		secret:  secret,
	}
}

// signRequest creates the HMAC signature over timestamp, method and path
func (c *HTTP) signRequest(timestamp, method, path string) string {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(timestamp + method + path))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (c *HTTP) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}
	if c.secret != "" {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set("X-TIMESTAMP", timestamp)
		req.Header.Set("X-SIGNATURE", c.signRequest(timestamp, http.MethodGet, path))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errUnknownMarket
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d - %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTP) GetPrice(ctx context.Context, marketID string) (decimal.Decimal, time.Time, error) {
	var body priceResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(marketID)+"/price", &body); err != nil {
		if errors.Is(err, errUnknownMarket) {
			return decimal.Zero, time.Time{}, ErrNoPrice
		}
		return decimal.Zero, time.Time{}, err
	}
	return body.Price, time.Unix(body.Timestamp, 0).UTC(), nil
}

func (c *HTTP) IsSettled(ctx context.Context, marketID string) (bool, models.Side, error) {
	var body resolutionResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(marketID)+"/resolution", &body); err != nil {
		if errors.Is(err, errUnknownMarket) {
			return false, models.SideNone, nil
		}
		return false, models.SideNone, err
	}
	return body.Settled, models.Side(body.Outcome), nil
}

var _ Oracle = (*HTTP)(nil)
