package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
)

// LedgerSource is what Reconcile needs to read the ledger back from storage.
type LedgerSource interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	ListTransactions(ctx context.Context, userID int64, f ports.TransactionFilter) ([]core.Transaction, error)
}

// SyncWorker mirrors created transactions into the ledger spreadsheet.
type SyncWorker struct {
	writer sheets.LedgerWriter
	index  sheets.LedgerIndex
}

// NewSyncWorker builds a worker. index may be nil, in which case redelivered
// messages are appended again.
func NewSyncWorker(writer sheets.LedgerWriter, index sheets.LedgerIndex) *SyncWorker {
	return &SyncWorker{writer: writer, index: index}
}

// HandleTransactionCreated processes a single transaction.created message from AMQP.
func (w *SyncWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	slog.InfoContext(ctx, "Processing transaction message",
		"id", msg.ID,
		"user_id", msg.UserID,
		"timestamp", msg.Timestamp)

	if _, err := w.sync(ctx, sheets.RowFromTransaction(msg.Transaction())); err != nil {
		return fmt.Errorf("sync transaction %d to sheets: %w", msg.ID, err)
	}
	return nil
}

// sync appends r unless the index already holds it. It reports whether a row was written.
func (w *SyncWorker) sync(ctx context.Context, r sheets.Row) (bool, error) {
	if w.index != nil {
		found, err := w.index.HasTransaction(ctx, r)
		if err != nil {
			return false, fmt.Errorf("check existing row: %w", err)
		}
		if found {
			slog.InfoContext(ctx, "Transaction already in ledger sheet, skipping", "id", r.TransactionID)
			return false, nil
		}
	}

	ref, err := w.writer.AppendRow(ctx, r)
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Transaction synced to ledger sheet",
		"id", r.TransactionID,
		"row_ref", ref)
	return true, nil
}

// ReconcileResult counts what a reconciliation pass did.
type ReconcileResult struct {
	Checked  int
	Appended int
	Errors   int
}

// Reconcile walks every user's transactions with from <= date < to and
// appends the ones missing from the sheet. It recovers rows whose messages
// were lost while the worker was down, so it needs an index.
func (w *SyncWorker) Reconcile(ctx context.Context, src LedgerSource, from, to core.Date) (ReconcileResult, error) {
	var res ReconcileResult
	if w.index == nil {
		return res, errors.New("reconcile requires a ledger index")
	}

	users, err := src.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		txs, err := src.ListTransactions(ctx, u.ID, ports.TransactionFilter{From: &from, To: &to})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list transactions for reconcile", "user_id", u.ID, "error", err)
			res.Errors++
			continue
		}
		// Oldest first so sheet rows follow ledger order.
		for i := len(txs) - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Checked++
			appended, err := w.sync(ctx, sheets.RowFromTransaction(txs[i]))
			if err != nil {
				slog.ErrorContext(ctx, "Failed to reconcile transaction", "id", txs[i].ID, "error", err)
				res.Errors++
				continue
			}
			if appended {
				res.Appended++
			}
		}
	}

	slog.InfoContext(ctx, "Ledger reconcile completed",
		"checked", res.Checked,
		"appended", res.Appended,
		"errors", res.Errors)
	return res, nil
}
