package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/cache"
	"fintrack/internal/sheets"
)

const (
	defaultSheetName   = "Ledger"
	defaultRowCacheTTL = 5 * time.Minute
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	RowCacheTTL        time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	// mu serialises appends so two rows never claim the same position.
	mu       sync.Mutex
	nextRows *cache.LRUCache[int]
}

var (
	_ sheets.LedgerWriter = (*Client)(nil)
	_ sheets.LedgerIndex  = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account. Rows go
// to a sheet named "<year> <SheetName>" chosen from the transaction date.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = defaultSheetName
	}
	ttl := cfg.RowCacheTTL
	if ttl <= 0 {
		ttl = defaultRowCacheTTL
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetBase:     base,
		nextRows:      cache.NewLRUCache[int](16, ttl),
	}
}

func credentialsJSON(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newSheetsService builds the API service on top of the pooled HTTP client.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	creds, err := credentialsJSON(ctx, cfg)
	if err != nil {
		return nil, err
	}
	jwt, err := oauthgoogle.JWTConfigFromJSON(creds, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	base := newHTTPClientWithPooling()
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	httpClient := jwt.Client(authCtx)
	httpClient.Timeout = base.Timeout

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "client_email", jwt.Email)
	return service, nil
}

// newHTTPClientWithPooling returns a client with connection pooling and
// bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

func (c *Client) sheetFor(r sheets.Row) string {
	return yearPrefixedName(c.sheetBase, r.Date.Year())
}

// AppendRow writes r on the first free row of its year's sheet, creating the
// sheet and its header when missing.
func (c *Client) AppendRow(ctx context.Context, r sheets.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := c.sheetFor(r)

	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.nextRow(ctx, sheet)
	if err != nil {
		return "", err
	}
	if next == 1 {
		header := make([]any, len(sheets.Header))
		for i, h := range sheets.Header {
			header[i] = h
		}
		if err := c.writeRow(ctx, sheet, 1, header); err != nil {
			c.nextRows.Delete(sheet)
			return "", fmt.Errorf("write header in sheet %s: %w", sheet, err)
		}
		next = 2
	}

	if err := c.writeRow(ctx, sheet, next, r.Values()); err != nil {
		c.nextRows.Delete(sheet)
		return "", fmt.Errorf("write row %d in sheet %s: %w", next, sheet, err)
	}
	c.nextRows.Set(sheet, next+1)

	return rowRange(sheet, next), nil
}

func rowRange(sheet string, row int) string {
	last := string(rune('A' + len(sheets.Header) - 1))
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, last, row)
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, values []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(sheet, row), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// nextRow returns the first empty row of sheet, counting the cached position
// when it is still fresh.
func (c *Client) nextRow(ctx context.Context, sheet string) (int, error) {
	if n, ok := c.nextRows.Get(sheet); ok {
		return n, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		if !isMissingSheet(err) {
			return 0, fmt.Errorf("get sheet dimensions for %s: %w", sheet, err)
		}
		if err := c.addSheet(ctx, sheet); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return len(resp.Values) + 1, nil
}

func (c *Client) addSheet(ctx context.Context, sheet string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Created ledger sheet", "sheet", sheet)
	return nil
}

// HasTransaction scans the transaction id column of the row's sheet.
func (c *Client) HasTransaction(ctx context.Context, r sheets.Row) (bool, error) {
	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	sheet := c.sheetFor(r)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!F:F").Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s!F:F: %w", sheet, err)
	}
	want := strconv.FormatInt(r.TransactionID, 10)
	for _, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateRowCache forgets every cached row position.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextRows.Clear()
}

func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
