package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const recurringColumns = `id, user_id, name, amount_cents, transaction_type, category_id, frequency,
	start_date, end_date, is_active, description, next_occurrence`

func scanRecurring(s rowScanner) (core.RecurringTransaction, error) {
	var (
		rt                     core.RecurringTransaction
		cents                  int64
		kind, freq, start, nxt string
		category               sql.NullInt64
		end                    sql.NullString
	)
	if err := s.Scan(&rt.ID, &rt.UserID, &rt.Name, &cents, &kind, &category, &freq,
		&start, &end, &rt.IsActive, &rt.Description, &nxt); err != nil {
		return core.RecurringTransaction{}, err
	}
	startDate, err := parseDate(start)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	next, err := parseDate(nxt)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if end.Valid {
		endDate, err := parseDate(end.String)
		if err != nil {
			return core.RecurringTransaction{}, err
		}
		rt.EndDate = &endDate
	}
	rt.Amount = core.FromCents(cents)
	rt.Kind = core.TransactionKind(kind)
	rt.Frequency = core.Frequency(freq)
	rt.CategoryID = idPtr(category)
	rt.StartDate = startDate
	rt.NextOccurrence = next
	return rt, nil
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list recurring transactions")
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	cents, err := core.ToCents(rt.Amount)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction %q: %w", rt.Name, err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (user_id, name, amount_cents, transaction_type, category_id,
			frequency, start_date, end_date, is_active, description, next_occurrence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.UserID, rt.Name, cents, string(rt.Kind), nullableID(rt.CategoryID),
		string(rt.Frequency), rt.StartDate.String(), nullableDate(rt.EndDate), rt.IsActive,
		rt.Description, rt.NextOccurrence.String())
	if err != nil {
		return core.RecurringTransaction{}, translate(err, fmt.Sprintf("create recurring transaction %q", rt.Name))
	}
	if rt.ID, err = res.LastInsertId(); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: last insert id: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, userID, id int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	rt, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, translate(err, fmt.Sprintf("get recurring transaction %d", id))
	}
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE user_id = ? ORDER BY next_occurrence, id`, userID)
}

func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, today core.Date) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE is_active = 1 AND next_occurrence <= ? ORDER BY next_occurrence, id`, today.String())
}

// UpdateRecurring rewrites the definition but never is_active. The schedule
// position is written only when reschedule is set, so an edit racing a
// materialisation cannot move next_occurrence back.
func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction, reschedule bool) (core.RecurringTransaction, error) {
	cents, err := core.ToCents(rt.Amount)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("update recurring transaction %d: %w", rt.ID, err)
	}
	query := `
		UPDATE recurring_transactions
		SET name = ?, amount_cents = ?, transaction_type = ?, category_id = ?, frequency = ?,
			start_date = ?, end_date = ?, description = ?`
	args := []any{rt.Name, cents, string(rt.Kind), nullableID(rt.CategoryID), string(rt.Frequency),
		rt.StartDate.String(), nullableDate(rt.EndDate), rt.Description}
	if reschedule {
		query += `, next_occurrence = ?`
		args = append(args, rt.NextOccurrence.String())
	}
	query += ` WHERE id = ? AND user_id = ?`
	args = append(args, rt.ID, rt.UserID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.RecurringTransaction{}, translate(err, fmt.Sprintf("update recurring transaction %d", rt.ID))
	}
	if err := expectRow(res, fmt.Sprintf("update recurring transaction %d", rt.ID)); err != nil {
		return core.RecurringTransaction{}, err
	}
	return r.GetRecurring(ctx, rt.UserID, rt.ID)
}

func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, userID, id int64, active bool) (core.RecurringTransaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_active = ? WHERE id = ? AND user_id = ?`, active, id, userID)
	if err != nil {
		return core.RecurringTransaction{}, translate(err, fmt.Sprintf("toggle recurring transaction %d", id))
	}
	if err := expectRow(res, fmt.Sprintf("toggle recurring transaction %d", id)); err != nil {
		return core.RecurringTransaction{}, err
	}
	return r.GetRecurring(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, fmt.Sprintf("delete recurring transaction %d", id))
	}
	return expectRow(res, fmt.Sprintf("delete recurring transaction %d", id))
}

// CommitOccurrence moves the schedule only if it still sits where the caller
// read it, then records the transaction. Losing either race yields ErrNotDue.
func (r *SQLiteRepository) CommitOccurrence(ctx context.Context, o ports.Occurrence) (core.Transaction, error) {
	t := o.Transaction
	t.RecurringID = &o.RecurringID

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE recurring_transactions SET next_occurrence = ?, is_active = ?
			WHERE id = ? AND next_occurrence = ? AND is_active = 1`,
			o.NextOccurrence.String(), o.Active, o.RecurringID, o.ExpectedNext.String())
		if err != nil {
			return translate(err, fmt.Sprintf("advance recurring transaction %d", o.RecurringID))
		}
		if err := expectRow(res, "advance recurring transaction"); err != nil {
			return core.ErrNotDue
		}
		id, err := insertTransaction(ctx, tx, t, r.timestamp())
		if err != nil {
			err = translate(err, "record occurrence")
			if errors.Is(err, core.ErrDuplicate) {
				return fmt.Errorf("%w: %v", core.ErrNotDue, err)
			}
			return err
		}
		t.ID = id
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}
