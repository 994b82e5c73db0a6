// Package rates fetches currency exchange rates from an HTTP upstream and
// keeps them cached in process.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

const BaseCurrency = "USD"

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrUpstream        = errors.New("exchange rate upstream failed")
)

// Config is passed to New by the caller; nothing here reads the environment.
type Config struct {
	// BaseURL is the latest-rates endpoint; the base currency is appended as a path segment.
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	// HTTPClient overrides the default client, mostly in tests.
	HTTPClient *http.Client
}

func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.exchangerate-api.com/v4/latest",
		Timeout:  5 * time.Second,
		CacheTTL: time.Hour,
	}
}

// Table is one snapshot of rates relative to Base.
type Table struct {
	Base      string                     `json:"base"`
	Date      string                     `json:"date"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Quote is a single rate or conversion answer.
type Quote struct {
	Base     string           `json:"base"`
	Currency string           `json:"currency"`
	Rate     decimal.Decimal  `json:"rate"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Result   *decimal.Decimal `json:"result,omitempty"`
	AsOf     string           `json:"as_of"`
}

type Client struct {
	cfg    Config
	http   *http.Client
	tables *cache.LRUCache[Table]
	group  singleflight.Group
}

func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:    cfg,
		http:   hc,
		tables: cache.NewLRUCache[Table](8, cfg.CacheTTL),
	}
}

// Cache exposes the table cache so a cache.Manager can sweep it.
func (c *Client) Cache() cache.Cleaner {
	return c.tables
}

// Latest returns the rates for base, from cache when fresh. Concurrent misses
// share one upstream request.
func (c *Client) Latest(ctx context.Context, base string) (Table, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if t, ok := c.tables.Get(base); ok {
		return t, nil
	}

	ch := c.group.DoChan(base, func() (any, error) {
		if t, ok := c.tables.Get(base); ok {
			return t, nil
		}
		// The fetch outlives any single caller's cancellation; other waiters may still need it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		t, err := c.fetch(fctx, base)
		if err != nil {
			return Table{}, err
		}
		c.tables.Set(base, t)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return Table{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Table{}, res.Err
		}
		return res.Val.(Table), nil
	}
}

func (c *Client) fetch(ctx context.Context, base string) (Table, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + base
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Table{}, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Exchange rate request failed", "url", url, "error", err)
		return Table{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.WarnContext(ctx, "Exchange rate upstream returned error", "url", url, "status", resp.StatusCode)
		return Table{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var t Table
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(t.Rates) == 0 {
		return Table{}, fmt.Errorf("%w: empty rate table", ErrUpstream)
	}
	if t.Base == "" {
		t.Base = base
	}
	t.FetchedAt = time.Now().UTC()

	slog.InfoContext(ctx, "Exchange rates fetched",
		"base", t.Base,
		"currencies", len(t.Rates),
		"duration", time.Since(start))
	return t, nil
}

// Rate returns the USD to currency rate.
func (c *Client) Rate(ctx context.Context, currency string) (Quote, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	t, err := c.Latest(ctx, BaseCurrency)
	if err != nil {
		return Quote{}, err
	}
	rate, ok := t.Rates[currency]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, currency)
	}
	return Quote{Base: t.Base, Currency: currency, Rate: rate, AsOf: t.Date}, nil
}

// Convert turns a USD amount into currency, rounded to cents.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, currency string) (Quote, error) {
	q, err := c.Rate(ctx, currency)
	if err != nil {
		return Quote{}, err
	}
	result := core.RoundAmount(amount.Mul(q.Rate))
	q.Amount = &amount
	q.Result = &result
	return q, nil
}
