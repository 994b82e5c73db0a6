package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const transactionColumns = `id, user_id, amount_cents, description, date, transaction_type,
	category_id, recurring_id, created_at, updated_at`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                 core.Transaction
		cents             int64
		date, kind        string
		category, recurID sql.NullInt64
		created, updated  string
	)
	if err := s.Scan(&t.ID, &t.UserID, &cents, &t.Description, &date, &kind,
		&category, &recurID, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.FromCents(cents)
	t.Date = d
	t.Kind = core.TransactionKind(kind)
	t.CategoryID = idPtr(category)
	t.RecurringID = idPtr(recurID)
	t.CreatedAt = parseTimestamp(created)
	t.UpdatedAt = parseTimestamp(updated)
	return t, nil
}

func insertTransaction(ctx context.Context, q querier, t core.Transaction, ts string) (int64, error) {
	cents, err := core.ToCents(t.Amount)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO transactions (user_id, amount_cents, description, date, transaction_type,
			category_id, recurring_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, cents, t.Description, t.Date.String(), string(t.Kind),
		nullableID(t.CategoryID), nullableID(t.RecurringID), ts, ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func replaceTags(ctx context.Context, q querier, txID int64, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, txID); err != nil {
		return err
	}
	for _, tag := range tagIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`, txID, tag); err != nil {
			return err
		}
	}
	return nil
}

// attachTags fills TagIDs for every transaction in txs with one query.
func attachTags(ctx context.Context, q querier, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	index := make(map[int64]int, len(txs))
	args := make([]any, len(txs))
	for i, t := range txs {
		index[t.ID] = i
		args[i] = t.ID
	}
	rows, err := q.QueryContext(ctx, `
		SELECT transaction_id, tag_id FROM transaction_tags
		WHERE transaction_id IN (`+placeholders(len(txs))+`) ORDER BY tag_id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var txID, tagID int64
		if err := rows.Scan(&txID, &tagID); err != nil {
			return err
		}
		i := index[txID]
		txs[i].TagIDs = append(txs[i].TagIDs, tagID)
	}
	return rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := insertTransaction(ctx, tx, t, r.timestamp())
		if err != nil {
			return translate(err, "create transaction")
		}
		t.ID = id
		return translate(replaceTags(ctx, tx, id, t.TagIDs), "tag transaction")
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, translate(err, fmt.Sprintf("get transaction %d", id))
	}
	txs := []core.Transaction{t}
	if err := attachTags(ctx, r.db, txs); err != nil {
		return core.Transaction{}, fmt.Errorf("load tags: %w", err)
	}
	return txs[0], nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f ports.TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.Kind != "" {
		where = append(where, "transaction_type = ?")
		args = append(args, string(f.Kind))
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.From != nil {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		where = append(where, "date < ?")
		args = append(args, f.To.String())
	}
	if f.Search != "" {
		where = append(where, `LOWER(description) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Search))+"%")
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list transactions")
	}
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	if err := attachTags(ctx, r.db, out); err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	cents, err := core.ToCents(t.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET amount_cents = ?, description = ?, date = ?, transaction_type = ?, category_id = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			cents, t.Description, t.Date.String(), string(t.Kind),
			nullableID(t.CategoryID), r.timestamp(), t.ID, t.UserID)
		if err != nil {
			return translate(err, fmt.Sprintf("update transaction %d", t.ID))
		}
		if err := expectRow(res, fmt.Sprintf("update transaction %d", t.ID)); err != nil {
			return err
		}
		return translate(replaceTags(ctx, tx, t.ID, t.TagIDs), "tag transaction")
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, fmt.Sprintf("delete transaction %d", id))
	}
	return expectRow(res, fmt.Sprintf("delete transaction %d", id))
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID, categoryID int64, from, to core.Date) (decimal.Decimal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE user_id = ? AND category_id = ? AND transaction_type = 'expense'
		  AND date >= ? AND date < ?`,
		userID, categoryID, from.String(), to.String()).Scan(&cents)
	if err != nil {
		return decimal.Zero, translate(err, "sum expenses")
	}
	return core.FromCents(cents), nil
}
