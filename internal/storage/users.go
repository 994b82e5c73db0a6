package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, created_at) VALUES (?, ?, ?)`,
		u.Username, u.Email, now.Format(timestampLayout))
	if err != nil {
		return core.User{}, translate(err, "create user")
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return core.User{}, fmt.Errorf("create user: last insert id: %w", err)
	}
	u.CreatedAt = now
	return u, nil
}

func scanUser(s rowScanner) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &created); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, email, created_at FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, translate(err, fmt.Sprintf("get user %d", id))
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, translate(err, "list users")
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, role, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at`,
		p.UserID, string(p.Role), ts, ts)
	if err != nil {
		return core.Profile{}, translate(err, fmt.Sprintf("save profile %d", p.UserID))
	}
	return r.GetProfile(ctx, p.UserID)
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID int64) (core.Profile, error) {
	var (
		p                core.Profile
		role             string
		created, updated string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, role, created_at, updated_at FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &role, &created, &updated)
	if err != nil {
		return core.Profile{}, translate(err, fmt.Sprintf("get profile %d", userID))
	}
	p.Role = core.Role(role)
	p.CreatedAt = parseTimestamp(created)
	p.UpdatedAt = parseTimestamp(updated)
	return p, nil
}
