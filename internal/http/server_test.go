package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

type fakeRates struct{}

func (fakeRates) Rate(_ context.Context, currency string) (rates.Quote, error) {
	if strings.ToUpper(currency) != "EUR" {
		return rates.Quote{}, rates.ErrUnknownCurrency
	}
	return rates.Quote{Base: "USD", Currency: "EUR", Rate: decimal.RequireFromString("0.9"), AsOf: "2024-05-15"}, nil
}

func (f fakeRates) Convert(ctx context.Context, amount decimal.Decimal, currency string) (rates.Quote, error) {
	q, err := f.Rate(ctx, currency)
	if err != nil {
		return q, err
	}
	result := core.RoundAmount(amount.Mul(q.Rate))
	q.Amount, q.Result = &amount, &result
	return q, nil
}

type testServer struct {
	*Server
	store *memory.Store
	admin *services.AdminService
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(core.NewDate(2024, 5, 15))
	tx := services.NewTransactionService(store, clk, nil)
	budgets := services.NewBudgetService(store, clk)
	savings := services.NewSavingsService(store, clk)
	engine := services.NewRecurrenceEngine(store, clk, nil)
	admin := services.NewAdminService(store, engine)
	categories := services.NewCategoryService(store)

	deps := Deps{
		Users:        store,
		Registration: services.NewRegistration(store),
		Transactions: tx,
		Categories:   categories,
		Budgets:      budgets,
		Savings:      savings,
		Recurring:    engine,
		Stats:        services.NewStatsService(tx, categories, budgets, savings, engine, clk),
		Admin:        admin,
		Rates:        fakeRates{},
		Clock:        clk,
		Ready:        func(context.Context) error { return nil },
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps, Options{
		Logger: log.New(log.Config{Output: io.Discard, Component: log.ComponentHTTP}),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, store: store, admin: admin}
}

func (ts *testServer) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set(HeaderUserID, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(t *testing.T, username string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/users", 0, map[string]string{"username": username, "email": username + "@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out registration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotZero(t, out.User.ID)
	assert.Empty(t, out.Warning)
	return out.User.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorBody](t, rec).Error.Code
}

func TestHealthAndHeaders(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))

	rec = ts.do(t, http.MethodGet, "/readyz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReportsStoreFailure(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("database is locked") }
	})
	rec := ts.do(t, http.MethodGet, "/readyz", 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

func TestActingUserRequired(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/transactions", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, log.ErrorTypeAuth, errorCode(t, rec))
	assert.NotEmpty(t, decode[ErrorBody](t, rec).Error.RequestID)

	rec = ts.do(t, http.MethodGet, "/api/transactions", 77, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unknown users are rejected")
}

func TestRegisterSeedsCategories(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodGet, "/api/categories", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Category](t, rec), len(core.DefaultCategories()))

	rec = ts.do(t, http.MethodPost, "/api/users", 0, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/users", 0, map[string]string{"username": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{
		"amount": "42.50", "description": "Groceries", "date": "2024-05-10", "transaction_type": "expense",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Transaction](t, rec)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("42.5")))

	rec = ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{
		"amount": 1500, "description": "Salary", "transaction_type": "income",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	salary := decode[core.Transaction](t, rec)
	assert.Equal(t, "2024-05-15", salary.Date.String(), "missing date defaults to today")

	rec = ts.do(t, http.MethodGet, "/api/transactions?month=2024-05", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[transactionList](t, rec)
	assert.Len(t, list.Transactions, 2)
	assert.Equal(t, 2, list.Summary.Count)
	assert.True(t, list.Summary.Balance.Equal(decimal.RequireFromString("1457.50")))

	rec = ts.do(t, http.MethodGet, "/api/transactions?kind=income", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[transactionList](t, rec).Transactions, 1)

	path := "/api/transactions/" + strconv.FormatInt(created.ID, 10)
	rec = ts.do(t, http.MethodPut, path, uid, map[string]any{
		"amount": "40", "description": "Groceries", "date": "2024-05-10", "transaction_type": "expense",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[core.Transaction](t, rec).Amount.Equal(decimal.NewFromInt(40)))

	other := ts.register(t, "bob")
	rec = ts.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other users cannot see the entry")

	rec = ts.do(t, http.MethodDelete, path, uid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, path, uid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", 0, nil)
	assert.Contains(t, rec.Body.String(), "transactions_created_total 2")
}

func TestTransactionValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"zero amount", map[string]any{"amount": "0", "transaction_type": "expense"}, http.StatusUnprocessableEntity},
		{"above maximum", map[string]any{"amount": "10000000000000.01", "transaction_type": "income"}, http.StatusUnprocessableEntity},
		{"beyond cents range", map[string]any{"amount": "184467440737095516.17", "transaction_type": "income"}, http.StatusUnprocessableEntity},
		{"future date", map[string]any{"amount": "1", "transaction_type": "expense", "date": "2024-05-16"}, http.StatusUnprocessableEntity},
		{"bad kind", map[string]any{"amount": "1", "transaction_type": "gift"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]any{"amount": "1", "transaction_type": "expense", "date": "2024-02-30"}, http.StatusUnprocessableEntity},
		{"unknown category", map[string]any{"amount": "1", "transaction_type": "expense", "category_id": 999}, http.StatusNotFound},
		{"unknown field", map[string]any{"amount": "1", "transaction_type": "expense", "currency": "EUR"}, http.StatusBadRequest},
		{"malformed", `{"amount":`, http.StatusBadRequest},
		{"trailing data", `{"amount":"1","transaction_type":"expense"} {}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/transactions", uid, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := ts.do(t, http.MethodGet, "/api/transactions/abc", uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/transactions?month=May", uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoryMismatchRejected(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/categories", uid, map[string]string{"name": "Bonus", "transaction_type": "income"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bonus := decode[core.Category](t, rec)
	assert.Equal(t, core.DefaultCategoryColor, bonus.Color)

	rec = ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{
		"amount": "5", "transaction_type": "expense", "category_id": bonus.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/categories/"+strconv.FormatInt(bonus.ID, 10), uid,
		map[string]string{"name": "Bonuses", "transaction_type": "both"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bonuses", decode[core.Category](t, rec).Name)
}

func TestTags(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/tags", uid, map[string]string{"name": "trip"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tag := decode[core.Tag](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{
		"amount": "12", "transaction_type": "expense", "tag_ids": []int64{tag.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []int64{tag.ID}, decode[core.Transaction](t, rec).TagIDs)

	rec = ts.do(t, http.MethodGet, "/api/tags", uid, nil)
	assert.Len(t, decode[[]core.Tag](t, rec), 1)

	rec = ts.do(t, http.MethodPut, "/api/tags/"+strconv.FormatInt(tag.ID, 10), uid, map[string]string{"name": "holiday", "color": "#112233"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	renamed := decode[core.Tag](t, rec)
	assert.Equal(t, "holiday", renamed.Name)
	assert.Equal(t, "#112233", renamed.Color)

	rec = ts.do(t, http.MethodPut, "/api/tags/999", uid, map[string]string{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/tags/"+strconv.FormatInt(tag.ID, 10), uid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBudgets(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/categories", uid, map[string]string{"name": "Groceries", "transaction_type": "expense"})
	require.Equal(t, http.StatusCreated, rec.Code)
	groceries := decode[core.Category](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/budgets", uid, map[string]any{"category_id": groceries.ID, "amount": "200", "month": "2024-05"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	status := decode[core.BudgetStatus](t, rec)
	assert.Equal(t, "2024-05-01", status.Budget.Month.String())

	rec = ts.do(t, http.MethodPost, "/api/budgets", uid, map[string]any{"category_id": groceries.ID, "amount": "150", "month": "2024-05-20"})
	assert.Equal(t, http.StatusConflict, rec.Code, "one budget per category and month")

	rec = ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{
		"amount": "250", "transaction_type": "expense", "category_id": groceries.ID, "date": "2024-05-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/budgets/current", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[core.BudgetSummary](t, rec)
	assert.Equal(t, "2024-05", summary.Month)
	require.Len(t, summary.Budgets, 1)
	assert.True(t, summary.Budgets[0].IsOverBudget)
	assert.True(t, summary.TotalRemaining.Equal(decimal.NewFromInt(-50)))
	assert.True(t, summary.Budgets[0].PercentageUsed.Equal(decimal.NewFromInt(100)))

	path := "/api/budgets/" + strconv.FormatInt(status.Budget.ID, 10)
	rec = ts.do(t, http.MethodPut, path, uid, map[string]any{"category_id": groceries.ID, "amount": "500", "month": "2024-05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[core.BudgetStatus](t, rec).IsOverBudget)

	rec = ts.do(t, http.MethodGet, "/api/budgets?month=2024-06", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]core.BudgetStatus](t, rec))

	rec = ts.do(t, http.MethodDelete, path, uid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, path, uid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavingsGoals(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/savings-goals", uid, map[string]any{
		"name": "Bike", "target_amount": "300", "current_amount": "100", "target_date": "2024-06-24",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goal := decode[services.GoalView](t, rec)
	assert.Equal(t, 40, goal.Progress.DaysRemaining)
	assert.True(t, goal.Progress.DailySavingNeeded.Equal(decimal.NewFromInt(5)))

	rec = ts.do(t, http.MethodGet, "/api/savings-goals/active", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[activeGoals](t, rec)
	assert.Len(t, active.Goals, 1)
	assert.Equal(t, 1, active.Summary.Count)

	path := "/api/savings-goals/" + strconv.FormatInt(goal.ID, 10)
	rec = ts.do(t, http.MethodPost, path+"/contributions", uid, map[string]any{"amount": "0"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = ts.do(t, http.MethodPost, path+"/contributions", uid, map[string]any{"amount": "10000000000000.01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPut, path, uid, map[string]any{
		"name": "E-bike", "target_amount": "350", "current_amount": "5000", "target_date": "2024-06-24",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[services.GoalView](t, rec)
	assert.Equal(t, "E-bike", edited.Name)
	assert.True(t, edited.CurrentAmount.Equal(decimal.NewFromInt(100)), "current amount is not editable")
	assert.True(t, edited.Progress.RemainingAmount.Equal(decimal.NewFromInt(250)))

	rec = ts.do(t, http.MethodPost, path+"/contributions", uid, map[string]any{"amount": "250"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[services.GoalView](t, rec)
	assert.True(t, done.IsAchieved)
	assert.True(t, done.CurrentAmount.Equal(decimal.NewFromInt(350)))

	rec = ts.do(t, http.MethodGet, "/api/savings-goals?achieved=true", uid, nil)
	assert.Len(t, decode[[]services.GoalView](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, path, uid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecurringProcessAndToggle(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/recurring", uid, map[string]any{
		"name": "Rent", "amount": "900", "transaction_type": "expense", "frequency": "monthly", "start_date": "2024-05-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	def := decode[core.RecurringTransaction](t, rec)
	assert.True(t, def.IsActive)
	path := "/api/recurring/" + strconv.FormatInt(def.ID, 10)

	rec = ts.do(t, http.MethodPost, path+"/process", uid, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[core.Transaction](t, rec)
	assert.Equal(t, "Rent", tx.Description)
	require.NotNil(t, tx.RecurringID)
	assert.Equal(t, def.ID, *tx.RecurringID)

	rec = ts.do(t, http.MethodPost, path+"/process", uid, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "the next occurrence is not due yet")

	rec = ts.do(t, http.MethodGet, path, uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-06-15", decode[core.RecurringTransaction](t, rec).NextOccurrence.String())

	rec = ts.do(t, http.MethodPut, path, uid, map[string]any{
		"name": "Rent", "amount": "950", "transaction_type": "expense", "frequency": "monthly", "start_date": "2024-05-15",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[core.RecurringTransaction](t, rec)
	assert.True(t, edited.Amount.Equal(decimal.NewFromInt(950)))
	assert.Equal(t, "2024-06-15", edited.NextOccurrence.String(), "same start date keeps the schedule")

	rec = ts.do(t, http.MethodPut, path, uid, map[string]any{
		"name": "Rent", "amount": "950", "transaction_type": "expense", "frequency": "monthly",
		"start_date": "2024-05-15", "end_date": "2024-05-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, path+"/toggle", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	off := decode[core.RecurringTransaction](t, rec)
	assert.False(t, off.IsActive)
	assert.Equal(t, "2024-06-15", off.NextOccurrence.String())

	rec = ts.do(t, http.MethodPost, "/api/recurring", uid, map[string]any{
		"name": "Gym", "amount": "30", "transaction_type": "expense", "frequency": "fortnightly", "start_date": "2024-05-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodDelete, path, uid, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")
	rec := ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{"amount": "10", "transaction_type": "income"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/stats", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[services.DashboardStats](t, rec)
	assert.Equal(t, 1, stats.CurrentMonth.Count)
	assert.Len(t, stats.RecentTransactions, 1)
	require.Len(t, stats.Monthly, 6)
	assert.True(t, stats.Monthly[5].Income.Equal(decimal.NewFromInt(10)))
	assert.Empty(t, stats.ByCategory)
}

func TestTransactionStats(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")
	for _, body := range []map[string]any{
		{"amount": "10", "transaction_type": "income", "date": "2024-05-02", "description": "Refund"},
		{"amount": "4", "transaction_type": "expense", "date": "2024-03-09", "description": "Coffee beans"},
	} {
		rec := ts.do(t, http.MethodPost, "/api/transactions", uid, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := ts.do(t, http.MethodGet, "/api/transactions/stats?months=3", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	trends := decode[services.Trends](t, rec)
	assert.Equal(t, "month", trends.Period)
	require.Len(t, trends.Monthly, 3)
	assert.Equal(t, "2024-03", trends.Monthly[0].Month)
	assert.True(t, trends.Monthly[0].Expenses.Equal(decimal.NewFromInt(4)))

	rec = ts.do(t, http.MethodGet, "/api/transactions/stats?period=year&months=2", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[services.Trends](t, rec).Monthly, 24)

	rec = ts.do(t, http.MethodGet, "/api/transactions/stats?period=week", uid, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/transactions/stats?months=-1", uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/transactions?search=coffee", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[transactionList](t, rec)
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, "Coffee beans", list.Transactions[0].Description)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, nil)
	uid := ts.register(t, "alice")
	rec := ts.do(t, http.MethodPost, "/api/transactions", uid, map[string]any{
		"amount": "12.30", "description": "Lunch", "transaction_type": "expense", "date": "2024-05-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/export/csv?month=2024-05", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="transactions_report_`)
	assert.Contains(t, rec.Body.String(), "Lunch")

	for _, format := range []string{"xlsx", "pdf"} {
		rec = ts.do(t, http.MethodGet, "/api/export/"+format, uid, nil)
		require.Equal(t, http.StatusOK, rec.Code, format)
		assert.NotZero(t, rec.Body.Len(), format)
	}

	rec = ts.do(t, http.MethodGet, "/api/export/docx", uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRates(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/rates/eur?amount=10", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q := decode[rates.Quote](t, rec)
	require.NotNil(t, q.Result)
	assert.True(t, q.Result.Equal(decimal.NewFromInt(9)))

	rec = ts.do(t, http.MethodGet, "/api/rates/XYZ", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/rates/EURO", 0, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/rates/EUR?amount=-1", 0, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	noRates := newTestServer(t, func(d *Deps) { d.Rates = nil })
	rec = noRates.do(t, http.MethodGet, "/api/rates/EUR", 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	alice := ts.register(t, "alice")
	root := ts.register(t, "root")

	rec := ts.do(t, http.MethodGet, "/api/admin/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := ts.admin.SetRole(context.Background(), root, core.RoleAdmin)
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/api/admin/users", root, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]services.UserWithRole](t, rec), 2)

	rec = ts.do(t, http.MethodPost, "/api/recurring", alice, map[string]any{
		"name": "Rent", "amount": "900", "transaction_type": "expense", "frequency": "monthly", "start_date": "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/recurring/run", root, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]int{"processed": 1}, decode[map[string]int](t, rec))
}

func TestRateLimitedResponseIsJSON(t *testing.T) {
	ts := newTestServer(t, nil)
	for i := 0; i < 120; i++ {
		rec := ts.do(t, http.MethodGet, "/healthz", 0, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.do(t, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
