package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = `id, user_id, name, transaction_type, color, icon, is_default`

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color, &c.Icon, &c.IsDefault); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, transaction_type, color, icon, is_default)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, string(c.Kind), c.Color, c.Icon, c.IsDefault)
	if err != nil {
		return core.Category{}, translate(err, fmt.Sprintf("create category %q", c.Name))
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("create category: last insert id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, translate(err, fmt.Sprintf("get category %d", id))
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, transaction_type = ?, color = ?, icon = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Kind), c.Color, c.Icon, c.ID, c.UserID)
	if err != nil {
		return core.Category{}, translate(err, fmt.Sprintf("update category %d", c.ID))
	}
	if err := expectRow(res, fmt.Sprintf("update category %d", c.ID)); err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, c.UserID, c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, fmt.Sprintf("delete category %d", id))
	}
	return expectRow(res, fmt.Sprintf("delete category %d", id))
}

func (r *SQLiteRepository) CreateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name, color) VALUES (?, ?, ?)`, t.UserID, t.Name, t.Color)
	if err != nil {
		return core.Tag{}, translate(err, fmt.Sprintf("create tag %q", t.Name))
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Tag{}, fmt.Errorf("create tag: last insert id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, userID int64) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, translate(err, "list tags")
	}
	defer rows.Close()

	var out []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ? WHERE id = ? AND user_id = ?`, t.Name, t.Color, t.ID, t.UserID)
	if err != nil {
		return core.Tag{}, translate(err, fmt.Sprintf("update tag %d", t.ID))
	}
	if err := expectRow(res, fmt.Sprintf("update tag %d", t.ID)); err != nil {
		return core.Tag{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTag(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, fmt.Sprintf("delete tag %d", id))
	}
	return expectRow(res, fmt.Sprintf("delete tag %d", id))
}
