package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetStore is the storage the budget service needs.
type BudgetStore interface {
	ports.BudgetStore
	categoryGetter
	SumExpenses(ctx context.Context, userID, categoryID int64, from, to core.Date) (decimal.Decimal, error)
}

// BudgetService derives spending figures for monthly category budgets from the
// ledger. Spending is never stored.
type BudgetService struct {
	store BudgetStore
	clock clock.Clock
}

func NewBudgetService(store BudgetStore, clk clock.Clock) *BudgetService {
	return &BudgetService{store: store, clock: clk}
}

func (s *BudgetService) prepare(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b.UserID = userID
	b.Amount = core.RoundAmount(b.Amount)
	b.Month = b.Month.MonthStart()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := checkCategory(ctx, s.store, userID, &b.CategoryID, core.Expense); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *BudgetService) Create(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b, err := s.prepare(ctx, userID, b)
	if err != nil {
		return core.Budget{}, err
	}
	return s.store.CreateBudget(ctx, b)
}

func (s *BudgetService) Update(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b, err := s.prepare(ctx, userID, b)
	if err != nil {
		return core.Budget{}, err
	}
	return s.store.UpdateBudget(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

// Spent totals expenses of the budget's category within its month.
func (s *BudgetService) Spent(ctx context.Context, b core.Budget) (decimal.Decimal, error) {
	from := b.Month.MonthStart()
	spent, err := s.store.SumExpenses(ctx, b.UserID, b.CategoryID, from, from.NextMonthStart())
	if err != nil {
		return decimal.Zero, fmt.Errorf("spent for budget %d: %w", b.ID, err)
	}
	return spent, nil
}

func (s *BudgetService) Status(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	spent, err := s.Spent(ctx, b)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.NewBudgetStatus(b, spent), nil
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.Status(ctx, b)
}

// List returns the statuses of every budget, or of one month when month is set.
func (s *BudgetService) List(ctx context.Context, userID int64, month *core.Date) ([]core.BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.Status(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Current summarises the budgets of the clock's current month.
func (s *BudgetService) Current(ctx context.Context, userID int64) (core.BudgetSummary, error) {
	month := s.clock.Today().MonthStart()
	statuses, err := s.List(ctx, userID, &month)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	return core.SummarizeBudgets(month, statuses), nil
}
