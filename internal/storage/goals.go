package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const goalColumns = `id, user_id, name, target_cents, current_cents, target_date,
	description, icon, color, is_achieved`

func scanGoal(s rowScanner) (core.SavingsGoal, error) {
	var (
		g               core.SavingsGoal
		target, current int64
		targetDate      string
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &target, &current, &targetDate,
		&g.Description, &g.Icon, &g.Color, &g.IsAchieved); err != nil {
		return core.SavingsGoal{}, err
	}
	d, err := parseDate(targetDate)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.TargetAmount = core.FromCents(target)
	g.CurrentAmount = core.FromCents(current)
	g.TargetDate = d
	return g, nil
}

func goalCents(g core.SavingsGoal) (target, current int64, err error) {
	if target, err = core.ToCents(g.TargetAmount); err != nil {
		return 0, 0, err
	}
	if current, err = core.ToCents(g.CurrentAmount); err != nil {
		return 0, 0, err
	}
	return target, current, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	target, current, err := goalCents(g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal %q: %w", g.Name, err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (user_id, name, target_cents, current_cents, target_date,
			description, icon, color, is_achieved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, target, current,
		g.TargetDate.String(), g.Description, g.Icon, g.Color, g.IsAchieved)
	if err != nil {
		return core.SavingsGoal{}, translate(err, fmt.Sprintf("create savings goal %q", g.Name))
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: last insert id: %w", err)
	}
	return g, nil
}

func getGoal(ctx context.Context, q querier, userID, id int64) (core.SavingsGoal, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err != nil {
		return core.SavingsGoal{}, translate(err, fmt.Sprintf("get savings goal %d", id))
	}
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error) {
	return getGoal(ctx, r.db, userID, id)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64, achieved *bool) ([]core.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE user_id = ?`
	args := []any{userID}
	if achieved != nil {
		query += ` AND is_achieved = ?`
		args = append(args, *achieved)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list savings goals")
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoal rewrites the editable fields. The achieved clamp is applied
// again in SQL so a lowered target is met by the saved amount.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	target, _, err := goalCents(g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal %d: %w", g.ID, err)
	}
	var goal core.SavingsGoal
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE savings_goals SET name = ?, target_cents = ?, target_date = ?, description = ?,
				icon = ?, color = ?, is_achieved = is_achieved OR current_cents >= ?
			WHERE id = ? AND user_id = ?`,
			g.Name, target, g.TargetDate.String(), g.Description, g.Icon, g.Color, target, g.ID, g.UserID)
		if err != nil {
			return translate(err, fmt.Sprintf("update savings goal %d", g.ID))
		}
		if err := expectRow(res, fmt.Sprintf("update savings goal %d", g.ID)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE savings_goals SET current_cents = target_cents
			WHERE id = ? AND current_cents > target_cents`, g.ID); err != nil {
			return translate(err, fmt.Sprintf("clamp savings goal %d", g.ID))
		}
		goal, err = getGoal(ctx, tx, g.UserID, g.ID)
		return err
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return goal, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, fmt.Sprintf("delete savings goal %d", id))
	}
	return expectRow(res, fmt.Sprintf("delete savings goal %d", id))
}

// AddToGoal increments in SQL so concurrent contributions never overwrite
// each other, then clamps to the target inside the same transaction.
func (r *SQLiteRepository) AddToGoal(ctx context.Context, userID, id int64, amount decimal.Decimal) (core.SavingsGoal, error) {
	cents, err := core.ToCents(amount)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("contribute to savings goal %d: %w", id, err)
	}
	var goal core.SavingsGoal
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE savings_goals SET current_cents = current_cents + ? WHERE id = ? AND user_id = ?`,
			cents, id, userID)
		if err != nil {
			return translate(err, fmt.Sprintf("contribute to savings goal %d", id))
		}
		if err := expectRow(res, fmt.Sprintf("contribute to savings goal %d", id)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE savings_goals SET current_cents = target_cents, is_achieved = 1
			WHERE id = ? AND current_cents >= target_cents`, id); err != nil {
			return translate(err, fmt.Sprintf("mark savings goal %d achieved", id))
		}
		goal, err = getGoal(ctx, tx, userID, id)
		return err
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return goal, nil
}
