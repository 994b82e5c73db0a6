package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// IsDue reports whether a definition has an occurrence to materialise today.
func IsDue(r core.RecurringTransaction, today core.Date) bool {
	return r.IsActive && !r.NextOccurrence.After(today)
}

// Advance computes the occurrence after the current one. A schedule that fell
// behind restarts from today, so a backlog is never replayed.
func Advance(r core.RecurringTransaction, today core.Date) (core.Date, error) {
	stepper, err := GetStepper(r.Frequency)
	if err != nil {
		return core.Date{}, err
	}
	base := r.NextOccurrence
	if base.Before(today) {
		base = today
	}
	return stepper.Step(base, r.StartDate.Day()), nil
}

// RecurringStore is the storage the engine needs: the schedules and the
// categories they reference.
type RecurringStore interface {
	ports.RecurringStore
	categoryGetter
}

// RecurrenceEngine turns due recurring definitions into ledger transactions.
type RecurrenceEngine struct {
	store     RecurringStore
	clock     clock.Clock
	publisher ports.EventPublisher
}

func NewRecurrenceEngine(store RecurringStore, clk clock.Clock, publisher ports.EventPublisher) *RecurrenceEngine {
	return &RecurrenceEngine{store: store, clock: clk, publisher: publisher}
}

// Create stores a new definition whose first occurrence is its start date.
func (e *RecurrenceEngine) Create(ctx context.Context, userID int64, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	r.UserID = userID
	r.Amount = core.RoundAmount(r.Amount)
	r.IsActive = true
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := checkCategory(ctx, e.store, userID, r.CategoryID, r.Kind); err != nil {
		return core.RecurringTransaction{}, err
	}
	r.NextOccurrence = r.StartDate
	return e.store.CreateRecurring(ctx, r)
}

func (e *RecurrenceEngine) Get(ctx context.Context, userID, id int64) (core.RecurringTransaction, error) {
	return e.store.GetRecurring(ctx, userID, id)
}

func (e *RecurrenceEngine) List(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return e.store.ListRecurring(ctx, userID)
}

func (e *RecurrenceEngine) Delete(ctx context.Context, userID, id int64) error {
	return e.store.DeleteRecurring(ctx, userID, id)
}

// Update edits a definition. The schedule restarts at the new start date when
// the start date changes and otherwise stays where materialisation left it.
// The active flag is only changed by Toggle.
func (e *RecurrenceEngine) Update(ctx context.Context, userID int64, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	existing, err := e.store.GetRecurring(ctx, userID, r.ID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	r.UserID = userID
	r.Amount = core.RoundAmount(r.Amount)
	r.IsActive = existing.IsActive
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := checkCategory(ctx, e.store, userID, r.CategoryID, r.Kind); err != nil {
		return core.RecurringTransaction{}, err
	}
	reschedule := !r.StartDate.Equal(existing.StartDate)
	if reschedule {
		r.NextOccurrence = r.StartDate
	}
	return e.store.UpdateRecurring(ctx, r, reschedule)
}

// Toggle flips the active flag. Reactivating a definition that ended is allowed
// and leaves next_occurrence where it was.
func (e *RecurrenceEngine) Toggle(ctx context.Context, userID, id int64) (core.RecurringTransaction, error) {
	r, err := e.store.GetRecurring(ctx, userID, id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return e.store.SetRecurringActive(ctx, userID, id, !r.IsActive)
}

// Materialize records the current occurrence of one definition and moves its
// schedule forward. It returns core.ErrNotDue when nothing is due or another
// caller already recorded the occurrence.
func (e *RecurrenceEngine) Materialize(ctx context.Context, userID, id int64) (core.Transaction, error) {
	r, err := e.store.GetRecurring(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return e.materialize(ctx, r, e.clock.Today())
}

func (e *RecurrenceEngine) materialize(ctx context.Context, r core.RecurringTransaction, today core.Date) (core.Transaction, error) {
	if !IsDue(r, today) {
		return core.Transaction{}, fmt.Errorf("recurring transaction %d next on %s: %w", r.ID, r.NextOccurrence, core.ErrNotDue)
	}
	next, err := Advance(r, today)
	if err != nil {
		return core.Transaction{}, err
	}

	description := r.Description
	if description == "" {
		description = r.Name
	}
	occ := ports.Occurrence{
		Transaction: core.Transaction{
			UserID:      r.UserID,
			Amount:      r.Amount,
			Description: description,
			Date:        r.NextOccurrence,
			Kind:        r.Kind,
			CategoryID:  r.CategoryID,
		},
		RecurringID:    r.ID,
		ExpectedNext:   r.NextOccurrence,
		NextOccurrence: next,
		Active:         r.EndDate == nil || !next.After(*r.EndDate),
	}

	t, err := e.store.CommitOccurrence(ctx, occ)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("materialize recurring transaction %d: %w", r.ID, err)
	}

	slog.InfoContext(ctx, "Created transaction from recurring definition",
		"recurring_id", r.ID,
		"transaction_id", t.ID,
		"date", t.Date.String(),
		"next_occurrence", next.String(),
		"active", occ.Active)

	publishCreated(ctx, e.publisher, t)
	return t, nil
}

// ProcessDue materialises every due definition of every user. Individual
// failures are logged and skipped; only a failure to list aborts the run.
func (e *RecurrenceEngine) ProcessDue(ctx context.Context) (int, error) {
	today := e.clock.Today()
	due, err := e.store.ListDueRecurring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"due", len(due),
		"processing_date", today.String())

	processed := 0
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if _, err := e.materialize(ctx, r, today); err != nil {
			if errors.Is(err, core.ErrNotDue) {
				slog.DebugContext(ctx, "Recurring transaction already processed", "recurring_id", r.ID)
				continue
			}
			slog.ErrorContext(ctx, "Failed to materialize recurring transaction",
				"recurring_id", r.ID,
				"user_id", r.UserID,
				"error", err)
			continue
		}
		processed++
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(due))

	return processed, nil
}
