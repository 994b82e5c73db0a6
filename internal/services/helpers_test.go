package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Transaction
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, t)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	store        *memory.Store
	clock        *clock.Fixed
	publisher    *recordingPublisher
	transactions *TransactionService
	categories   *CategoryService
	budgets      *BudgetService
	savings      *SavingsService
	engine       *RecurrenceEngine
	registration *Registration
	admin        *AdminService
	stats        *StatsService
}

func newFixture(t *testing.T, today core.Date) *fixture {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(today)
	pub := &recordingPublisher{}
	f := &fixture{
		store:        store,
		clock:        clk,
		publisher:    pub,
		transactions: NewTransactionService(store, clk, pub),
		categories:   NewCategoryService(store),
		budgets:      NewBudgetService(store, clk),
		savings:      NewSavingsService(store, clk),
		engine:       NewRecurrenceEngine(store, clk, pub),
		registration: NewRegistration(store),
	}
	f.admin = NewAdminService(store, f.engine)
	f.stats = NewStatsService(f.transactions, f.categories, f.budgets, f.savings, f.engine, clk)
	return f
}

func (f *fixture) user(t *testing.T, name string) core.User {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), core.User{Username: name})
	require.NoError(t, err)
	return u
}

func (f *fixture) category(t *testing.T, userID int64, name string, kind core.CategoryKind) core.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), userID, core.Category{Name: name, Kind: kind})
	require.NoError(t, err)
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
