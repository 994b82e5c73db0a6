// Package ports declares the storage and messaging boundaries the services
// depend on. Implementations live in internal/storage, internal/storage/memory
// and internal/amqp.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TransactionFilter narrows a ledger listing. Zero values mean no filter.
// The date range is half-open: From <= date < To.
type TransactionFilter struct {
	Kind       core.TransactionKind
	CategoryID *int64
	From       *core.Date
	To         *core.Date
	// Search matches a case-insensitive substring of the description.
	Search string
	Limit  int
}

// Occurrence is one materialised run of a recurring definition. The store
// inserts Transaction and moves the definition from ExpectedNext to NextOccurrence
// in a single unit, or does neither.
type Occurrence struct {
	Transaction    core.Transaction
	RecurringID    int64
	ExpectedNext   core.Date
	NextOccurrence core.Date
	Active         bool
}

type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error)
		GetProfile(ctx context.Context, userID int64) (core.Profile, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, userID, id int64) error
	}

	TagStore interface {
		CreateTag(ctx context.Context, t core.Tag) (core.Tag, error)
		ListTags(ctx context.Context, userID int64) ([]core.Tag, error)
		UpdateTag(ctx context.Context, t core.Tag) (core.Tag, error)
		DeleteTag(ctx context.Context, userID, id int64) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
		// SumExpenses totals expense amounts for a category with from <= date < to.
		SumExpenses(ctx context.Context, userID, categoryID int64, from, to core.Date) (decimal.Decimal, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
		// ListBudgets returns every budget of the user, or only those of month when set.
		ListBudgets(ctx context.Context, userID int64, month *core.Date) ([]core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id int64) error
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error)
		ListGoals(ctx context.Context, userID int64, achieved *bool) ([]core.SavingsGoal, error)
		// UpdateGoal rewrites name, target, date and presentation. The current
		// amount is untouched; it is clamped to the new target and the goal is
		// marked achieved when the target is already met.
		UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		DeleteGoal(ctx context.Context, userID, id int64) error
		// AddToGoal increments the current amount atomically and marks the goal
		// achieved, clamping to the target, once the target is reached.
		AddToGoal(ctx context.Context, userID, id int64, amount decimal.Decimal) (core.SavingsGoal, error)
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error)
		GetRecurring(ctx context.Context, userID, id int64) (core.RecurringTransaction, error)
		ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error)
		// ListDueRecurring returns active definitions of every user with
		// next_occurrence on or before today.
		ListDueRecurring(ctx context.Context, today core.Date) ([]core.RecurringTransaction, error)
		// UpdateRecurring leaves is_active alone and writes next_occurrence only
		// when reschedule is set.
		UpdateRecurring(ctx context.Context, r core.RecurringTransaction, reschedule bool) (core.RecurringTransaction, error)
		SetRecurringActive(ctx context.Context, userID, id int64, active bool) (core.RecurringTransaction, error)
		DeleteRecurring(ctx context.Context, userID, id int64) error
		// CommitOccurrence returns core.ErrNotDue when the definition no longer
		// sits at ExpectedNext or the occurrence was already recorded.
		CommitOccurrence(ctx context.Context, o Occurrence) (core.Transaction, error)
	}

	Store interface {
		UserStore
		CategoryStore
		TagStore
		TransactionStore
		BudgetStore
		GoalStore
		RecurringStore
		Close() error
	}

	// EventPublisher announces ledger changes to downstream consumers.
	EventPublisher interface {
		PublishTransactionCreated(ctx context.Context, t core.Transaction) error
	}
)
