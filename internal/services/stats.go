package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	recentTransactions = 10
	dashboardGoals     = 5
	upcomingRecurring  = 5
	topCategories      = 10
	dashboardMonths    = 6
	maxTrendMonths     = 120
)

// DashboardStats is the overview shown on the dashboard.
type DashboardStats struct {
	AllTime            core.LedgerSummary          `json:"all_time"`
	CurrentMonth       core.LedgerSummary          `json:"current_month"`
	RecentTransactions []core.Transaction          `json:"recent_transactions"`
	Budgets            core.BudgetSummary          `json:"budgets"`
	ActiveGoals        []GoalView                  `json:"active_goals"`
	UpcomingRecurring  []core.RecurringTransaction `json:"upcoming_recurring"`
	ByCategory         []core.CategoryTotal        `json:"by_category"`
	Monthly            []core.MonthTotals          `json:"monthly"`
}

// Trends is the month by month income and expense history of a window
// ending with the current month.
type Trends struct {
	Period  string             `json:"period"`
	Months  int                `json:"months"`
	From    core.Date          `json:"from"`
	To      core.Date          `json:"to"`
	Monthly []core.MonthTotals `json:"monthly"`
}

type StatsService struct {
	transactions *TransactionService
	categories   *CategoryService
	budgets      *BudgetService
	savings      *SavingsService
	recurring    *RecurrenceEngine
	clock        clock.Clock
}

func NewStatsService(tx *TransactionService, categories *CategoryService, budgets *BudgetService, savings *SavingsService, recurring *RecurrenceEngine, clk clock.Clock) *StatsService {
	return &StatsService{
		transactions: tx,
		categories:   categories,
		budgets:      budgets,
		savings:      savings,
		recurring:    recurring,
		clock:        clk,
	}
}

// monthly returns the totals of the last months calendar months, the current
// one included.
func (s *StatsService) monthly(ctx context.Context, userID int64, months int) (core.Date, core.Date, []core.MonthTotals, error) {
	today := s.clock.Today()
	from := today.MonthStart().AddMonths(-(months - 1), 1)
	to := today.NextMonthStart()
	txs, _, err := s.transactions.List(ctx, userID, ports.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return core.Date{}, core.Date{}, nil, err
	}
	return from, to, core.MonthlyTotals(txs, today, months), nil
}

// Trends reports monthly totals over count months, or count years when period
// is "year".
func (s *StatsService) Trends(ctx context.Context, userID int64, period string, count int) (Trends, error) {
	if period == "" {
		period = "month"
	}
	if period != "month" && period != "year" {
		return Trends{}, fmt.Errorf("%w: period must be month or year", core.ErrInvalid)
	}
	months := count
	if period == "year" && count <= maxTrendMonths {
		months = count * 12
	}
	if count < 1 || months > maxTrendMonths {
		return Trends{}, fmt.Errorf("%w: window must cover 1 to %d months", core.ErrInvalid, maxTrendMonths)
	}
	from, to, monthly, err := s.monthly(ctx, userID, months)
	if err != nil {
		return Trends{}, err
	}
	return Trends{Period: period, Months: months, From: from, To: to, Monthly: monthly}, nil
}

// Dashboard gathers every section concurrently. The first failing section
// cancels the rest.
func (s *StatsService) Dashboard(ctx context.Context, userID int64) (DashboardStats, error) {
	var out DashboardStats
	month := s.clock.Today().MonthStart()
	next := month.NextMonthStart()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, summary, err := s.transactions.List(ctx, userID, ports.TransactionFilter{})
		out.AllTime = summary
		return err
	})
	g.Go(func() error {
		_, summary, err := s.transactions.List(ctx, userID, ports.TransactionFilter{From: &month, To: &next})
		out.CurrentMonth = summary
		return err
	})
	g.Go(func() error {
		recent, _, err := s.transactions.List(ctx, userID, ports.TransactionFilter{Limit: recentTransactions})
		out.RecentTransactions = recent
		return err
	})
	g.Go(func() error {
		summary, err := s.budgets.Current(ctx, userID)
		out.Budgets = summary
		return err
	})
	g.Go(func() error {
		goals, _, err := s.savings.Active(ctx, userID)
		sort.SliceStable(goals, func(i, j int) bool {
			return goals[i].TargetDate.Before(goals[j].TargetDate)
		})
		if len(goals) > dashboardGoals {
			goals = goals[:dashboardGoals]
		}
		out.ActiveGoals = goals
		return err
	})
	g.Go(func() error {
		defs, err := s.recurring.List(ctx, userID)
		var upcoming []core.RecurringTransaction
		for _, r := range defs {
			if r.IsActive && len(upcoming) < upcomingRecurring {
				upcoming = append(upcoming, r)
			}
		}
		out.UpcomingRecurring = upcoming
		return err
	})

	g.Go(func() error {
		txs, _, err := s.transactions.List(ctx, userID, ports.TransactionFilter{Kind: core.Expense, From: &month, To: &next})
		if err != nil {
			return err
		}
		cats, err := s.categories.List(ctx, userID)
		out.ByCategory = core.TopExpenseCategories(txs, cats, topCategories)
		return err
	})
	g.Go(func() error {
		_, _, monthly, err := s.monthly(ctx, userID, dashboardMonths)
		out.Monthly = monthly
		return err
	})

	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}
	return out, nil
}
