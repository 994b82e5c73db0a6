package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, user_id, category_id, amount_cents, month`

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b     core.Budget
		cents int64
		month string
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &cents, &month); err != nil {
		return core.Budget{}, err
	}
	m, err := parseDate(month)
	if err != nil {
		return core.Budget{}, err
	}
	b.Amount = core.FromCents(cents)
	b.Month = m
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Month = b.Month.MonthStart()
	cents, err := core.ToCents(b.Amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_cents, month) VALUES (?, ?, ?, ?)`,
		b.UserID, b.CategoryID, cents, b.Month.String())
	if err != nil {
		return core.Budget{}, translate(err, fmt.Sprintf("create budget for %s", b.Month.MonthKey()))
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: last insert id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, translate(err, fmt.Sprintf("get budget %d", id))
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, month *core.Date) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if month != nil {
		query += ` AND month = ?`
		args = append(args, month.MonthStart().String())
	}
	query += ` ORDER BY month DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list budgets")
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Month = b.Month.MonthStart()
	cents, err := core.ToCents(b.Amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount_cents = ?, month = ? WHERE id = ? AND user_id = ?`,
		b.CategoryID, cents, b.Month.String(), b.ID, b.UserID)
	if err != nil {
		return core.Budget{}, translate(err, fmt.Sprintf("update budget %d", b.ID))
	}
	if err := expectRow(res, fmt.Sprintf("update budget %d", b.ID)); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, fmt.Sprintf("delete budget %d", id))
	}
	return expectRow(res, fmt.Sprintf("delete budget %d", id))
}
