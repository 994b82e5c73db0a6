package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// GoalView is a savings goal with its progress on the clock's current day.
type GoalView struct {
	core.SavingsGoal
	Progress core.GoalProgress `json:"progress"`
}

type SavingsService struct {
	store ports.GoalStore
	clock clock.Clock
}

func NewSavingsService(store ports.GoalStore, clk clock.Clock) *SavingsService {
	return &SavingsService{store: store, clock: clk}
}

func (s *SavingsService) view(g core.SavingsGoal) GoalView {
	return GoalView{SavingsGoal: g, Progress: g.Progress(s.clock.Today())}
}

func (s *SavingsService) Create(ctx context.Context, userID int64, g core.SavingsGoal) (GoalView, error) {
	g.UserID = userID
	g.Name = strings.TrimSpace(g.Name)
	g.TargetAmount = core.RoundAmount(g.TargetAmount)
	g.CurrentAmount = core.RoundAmount(g.CurrentAmount)
	if g.Icon == "" {
		g.Icon = core.DefaultGoalIcon
	}
	if g.Color == "" {
		g.Color = core.DefaultGoalColor
	}
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.CurrentAmount = g.TargetAmount
		g.IsAchieved = true
	} else {
		g.IsAchieved = false
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return GoalView{}, err
	}
	return s.view(created), nil
}

func (s *SavingsService) Get(ctx context.Context, userID, id int64) (GoalView, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalView{}, err
	}
	return s.view(g), nil
}

// List returns the user's goals, filtered by achievement when achieved is set.
func (s *SavingsService) List(ctx context.Context, userID int64, achieved *bool) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx, userID, achieved)
	if err != nil {
		return nil, err
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, s.view(g))
	}
	return out, nil
}

// Active returns the goals not yet achieved with their totals.
func (s *SavingsService) Active(ctx context.Context, userID int64) ([]GoalView, core.GoalSummary, error) {
	achieved := false
	goals, err := s.store.ListGoals(ctx, userID, &achieved)
	if err != nil {
		return nil, core.GoalSummary{}, err
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, s.view(g))
	}
	return out, core.SummarizeGoals(goals), nil
}

// Update edits a goal's name, target, date and presentation. Contributions are
// the only way to change the saved amount; a target lowered to or below it
// marks the goal achieved.
func (s *SavingsService) Update(ctx context.Context, userID int64, g core.SavingsGoal) (GoalView, error) {
	existing, err := s.store.GetGoal(ctx, userID, g.ID)
	if err != nil {
		return GoalView{}, err
	}
	existing.Name = strings.TrimSpace(g.Name)
	existing.TargetAmount = core.RoundAmount(g.TargetAmount)
	existing.TargetDate = g.TargetDate
	existing.Description = g.Description
	if g.Icon != "" {
		existing.Icon = g.Icon
	}
	if g.Color != "" {
		existing.Color = g.Color
	}
	if err := existing.Validate(); err != nil {
		return GoalView{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, existing)
	if err != nil {
		return GoalView{}, err
	}
	return s.view(updated), nil
}

func (s *SavingsService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteGoal(ctx, userID, id)
}

// Contribute adds a positive amount to a goal. Reaching the target marks the
// goal achieved and pins the current amount to the target.
func (s *SavingsService) Contribute(ctx context.Context, userID, id int64, amount decimal.Decimal) (GoalView, error) {
	amount = core.RoundAmount(amount)
	if err := core.ValidateAmount(amount); err != nil {
		return GoalView{}, fmt.Errorf("contribution %s: %w", amount.String(), err)
	}
	g, err := s.store.AddToGoal(ctx, userID, id, amount)
	if err != nil {
		return GoalView{}, err
	}
	return s.view(g), nil
}
