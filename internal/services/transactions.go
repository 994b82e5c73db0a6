package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type categoryGetter interface {
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
}

// TransactionStore is the storage the ledger service needs.
type TransactionStore interface {
	ports.TransactionStore
	categoryGetter
	ListTags(ctx context.Context, userID int64) ([]core.Tag, error)
}

// TransactionService validates and records ledger entries and announces every
// new entry to the event publisher.
type TransactionService struct {
	store     TransactionStore
	clock     clock.Clock
	publisher ports.EventPublisher
}

func NewTransactionService(store TransactionStore, clk clock.Clock, publisher ports.EventPublisher) *TransactionService {
	return &TransactionService{store: store, clock: clk, publisher: publisher}
}

// checkCategory verifies that an optional category belongs to the user and
// accepts the transaction kind.
func checkCategory(ctx context.Context, store categoryGetter, userID int64, categoryID *int64, kind core.TransactionKind) error {
	if categoryID == nil {
		return nil
	}
	c, err := store.GetCategory(ctx, userID, *categoryID)
	if err != nil {
		return err
	}
	if !c.Accepts(kind) {
		return fmt.Errorf("%w: %q is %s", core.ErrCategoryKindMismatch, c.Name, c.Kind)
	}
	return nil
}

func (s *TransactionService) checkTags(ctx context.Context, userID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	owned := make(map[int64]bool, len(tags))
	for _, t := range tags {
		owned[t.ID] = true
	}
	for _, id := range tagIDs {
		if !owned[id] {
			return fmt.Errorf("tag %d: %w", id, core.ErrNotFound)
		}
	}
	return nil
}

func (s *TransactionService) prepare(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.Amount = core.RoundAmount(t.Amount)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.Date.After(s.clock.Today()) {
		return core.Transaction{}, core.ErrFutureDate
	}
	if err := checkCategory(ctx, s.store, userID, t.CategoryID, t.Kind); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkTags(ctx, userID, t.TagIDs); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Create records a user entered transaction. Its date may not lie in the future.
func (s *TransactionService) Create(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t, err := s.prepare(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	publishCreated(ctx, s.publisher, created)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	if _, err := s.store.GetTransaction(ctx, userID, t.ID); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.prepare(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.store.UpdateTransaction(ctx, t)
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteTransaction(ctx, userID, id)
}

// List returns the filtered ledger together with its totals.
func (s *TransactionService) List(ctx context.Context, userID int64, f ports.TransactionFilter) ([]core.Transaction, core.LedgerSummary, error) {
	txs, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, core.LedgerSummary{}, err
	}
	return txs, core.Summarize(txs), nil
}

// publishCreated never fails the caller: the transaction is already stored.
func publishCreated(ctx context.Context, publisher ports.EventPublisher, t core.Transaction) {
	if publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping transaction event", "transaction_id", t.ID)
		return
	}
	if err := publisher.PublishTransactionCreated(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID,
			"error", err)
	}
}
