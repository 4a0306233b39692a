package exchangerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
)

const (
	historyKey                = "history"
	responseBodyReadLimit     = 1024
	defaultTimeout            = 10 * time.Second
	apiKeyHeader              = "X-API-Key"
	defaultHistoryCurrency    = enums.CurrencyUSD
	providerUnavailableReason = "exchange rate provider unavailable"
)

var errURLRequired = errors.New("exchange rate url is required")

// Client fetches base rates from the configured rate provider.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithClock overrides the time source used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a provider client for url.
func NewClient(url string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil, errURLRequired
	}
	client := &Client{
		url:        trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// DailyRate is one trailing history entry as reported by the provider.
type DailyRate struct {
	Date     time.Time
	Currency enums.Currency
	Rate     float64
}

// Result is the decoded provider payload. Rates holds the base rate of every recognised
// currency relative to the domestic reference currency.
type Result struct {
	Rates     map[enums.Currency]float64
	History   []DailyRate
	FetchedAt time.Time
}

type envelope struct {
	Success bool                       `json:"success"`
	Data    map[string]json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type rateInfo struct {
	BaseRate *float64 `json:"baseRate"`
}

type historyEntry struct {
	Date     string   `json:"date"`
	Currency string   `json:"currency"`
	Rate     *float64 `json:"rate"`
}

// Fetch performs exactly one request; callers decide whether to retry.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "exchange rate client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build exchange rate request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, providerUnavailableReason)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "exchange rate request failed")
	}

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode exchange rate response")
	}
	if !body.Success {
		msg := "exchange rate provider reported failure"
		if body.Error != nil && strings.TrimSpace(body.Error.Message) != "" {
			msg = strings.TrimSpace(body.Error.Message)
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
	return c.decodeData(body.Data)
}

func (c *Client) decodeData(data map[string]json.RawMessage) (*Result, error) {
	result := &Result{
		Rates:     make(map[enums.Currency]float64, len(data)),
		FetchedAt: c.now().UTC(),
	}
	for key, raw := range data {
		if key == historyKey {
			history, err := decodeHistory(raw)
			if err != nil {
				return nil, err
			}
			result.History = history
			continue
		}
		cur, err := enums.ParseCurrency(key)
		if err != nil {
			continue
		}
		var info rateInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s rate", key))
		}
		if info.BaseRate == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s rate is missing baseRate", key))
		}
		result.Rates[cur] = *info.BaseRate
	}
	if len(result.Rates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "exchange rate response contained no rates")
	}
	return result, nil
}

func decodeHistory(raw json.RawMessage) ([]DailyRate, error) {
	var entries []historyEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode exchange rate history")
	}
	out := make([]DailyRate, 0, len(entries))
	for i, e := range entries {
		date, err := parseDate(e.Date)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("history[%d].date", i))
		}
		if e.Rate == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("history[%d].rate is missing", i))
		}
		cur := defaultHistoryCurrency
		if strings.TrimSpace(e.Currency) != "" {
			parsed, err := enums.ParseCurrency(e.Currency)
			if err != nil {
				continue
			}
			cur = parsed
		}
		out = append(out, DailyRate{Date: date, Currency: cur, Rate: *e.Rate})
	}
	return out, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "20060102"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}
