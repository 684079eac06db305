package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is the price block of a spot quote, per troy ounce.
type Rate struct {
	Price         decimal.Decimal `json:"price"`
	Ask           decimal.Decimal `json:"ask"`
	Bid           decimal.Decimal `json:"bid"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Quote is the spot response of api.metals.dev.
type Quote struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Currency  string    `json:"currency"`
	Unit      string    `json:"unit"`
	Metal     string    `json:"metal"`
	Rate      Rate      `json:"rate"`
}

// Usage is the provider's account quota.
type Usage struct {
	Used      int    `json:"used"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Plan      string `json:"plan"`
}

// Source fetches quotes and quota from the price provider.
type Source interface {
	Spot(ctx context.Context) (*Quote, error)
	Usage(ctx context.Context) (*Usage, error)
}

// Client talks to api.metals.dev (or anything serving the same shape).
type Client struct {
	BaseURL  string
	APIKey   string
	Metal    string
	Currency string
	HTTP     *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		Metal:    "gold",
		Currency: "IDR",
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Spot fetches the current quote. Failures come back as *FetchError.
func (c *Client) Spot(ctx context.Context) (*Quote, error) {
	q := url.Values{}
	q.Set("api_key", c.APIKey)
	q.Set("metal", c.Metal)
	q.Set("currency", c.Currency)

	body, status, err := c.get(ctx, "/v1/metal/spot", q)
	if err != nil {
		return nil, newFetchError(CodeConnection, "Gagal terhubung ke API harga emas", err)
	}
	if status == http.StatusTooManyRequests {
		return nil, newFetchError(CodeRateLimit, "API rate limit exceeded. Silakan coba lagi nanti.", nil)
	}
	if status < 200 || status > 299 {
		return nil, newFetchError(CodeFetch, "Gagal mengambil harga emas dari API", fmt.Errorf("unexpected status %d", status))
	}
	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, newFetchError(CodeFetch, "Gagal mengambil harga emas dari API", fmt.Errorf("decode spot: %w", err))
	}
	if quote.Status != "success" {
		return nil, newFetchError(CodeFetch, "Gagal mengambil harga emas dari API", fmt.Errorf("API returned status: %s", quote.Status))
	}
	if quote.Timestamp.IsZero() || !quote.Rate.Price.IsPositive() {
		return nil, newFetchError(CodeFetch, "Gagal mengambil harga emas dari API", errors.New("quote missing timestamp or price"))
	}
	return &quote, nil
}

// Usage reads the monthly request quota. used/total may arrive as strings.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	q := url.Values{}
	q.Set("api_key", c.APIKey)
	body, status, err := c.get(ctx, "/usage", q)
	if err != nil {
		return nil, fmt.Errorf("usage request: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("usage request: unexpected status %d", status)
	}
	var raw struct {
		Status    string   `json:"status"`
		Used      flexInt  `json:"used"`
		Total     flexInt  `json:"total"`
		Remaining *flexInt `json:"remaining"`
		Plan      string   `json:"plan"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode usage: %w", err)
	}
	if raw.Status != "success" {
		return nil, fmt.Errorf("usage returned status: %s", raw.Status)
	}
	u := &Usage{Used: int(raw.Used), Total: int(raw.Total), Plan: raw.Plan}
	if u.Total <= 0 {
		u.Total = 100
	}
	if raw.Remaining != nil {
		u.Remaining = int(*raw.Remaining)
	} else {
		u.Remaining = u.Total - u.Used
	}
	return u, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// flexInt accepts 12, 12.0 and "12". Anything else decodes as 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexInt(int(v))
		return nil
	}
	*f = 0
	return nil
}
