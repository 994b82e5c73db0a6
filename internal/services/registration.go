package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// RegistrationStore is the storage user registration needs.
type RegistrationStore interface {
	ports.UserStore
	ports.CategoryStore
}

// Registration creates users together with their profile and default categories.
type Registration struct {
	store RegistrationStore
}

func NewRegistration(store RegistrationStore) *Registration {
	return &Registration{store: store}
}

// Register stores a new user and runs OnUserRegistered. The user is returned
// even when the follow up steps partially fail.
func (r *Registration) Register(ctx context.Context, username, email string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, fmt.Errorf("username: %w", core.ErrEmptyName)
	}
	u, err := r.store.CreateUser(ctx, core.User{Username: username, Email: strings.TrimSpace(email)})
	if err != nil {
		return core.User{}, err
	}
	return u, r.OnUserRegistered(ctx, u)
}

// OnUserRegistered creates the user's profile with the default role and seeds
// the default categories. Every failed step is reported in the joined error.
func (r *Registration) OnUserRegistered(ctx context.Context, u core.User) error {
	var errs []error
	if _, err := r.store.SaveProfile(ctx, core.Profile{UserID: u.ID, Role: core.RoleUser}); err != nil {
		errs = append(errs, fmt.Errorf("create profile: %w", err))
	}
	if _, err := r.seed(ctx, u.ID); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		slog.ErrorContext(ctx, "User registration incomplete", "user_id", u.ID, "error", err)
		return fmt.Errorf("register user %d: %w", u.ID, err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "username", u.Username)
	return nil
}

// seed creates every default category the user does not have by name yet.
func (r *Registration) seed(ctx context.Context, userID int64) (int, error) {
	existing, err := r.store.ListCategories(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}

	var errs []error
	created := 0
	for _, c := range core.DefaultCategories() {
		if have[c.Name] {
			continue
		}
		c.UserID = userID
		if _, err := r.store.CreateCategory(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("seed category %q: %w", c.Name, err))
			continue
		}
		created++
	}
	return created, errors.Join(errs...)
}

// SeedCategories seeds the defaults for a user that has no categories at all.
// Users with any category are skipped and reported as not seeded.
func (r *Registration) SeedCategories(ctx context.Context, userID int64) (bool, error) {
	existing, err := r.store.ListCategories(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := r.seed(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// SeedAllCategories runs SeedCategories for every user and returns how many
// were seeded. Failures for single users do not stop the run.
func (r *Registration) SeedAllCategories(ctx context.Context) (int, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	var errs []error
	seeded := 0
	for _, u := range users {
		ok, err := r.SeedCategories(ctx, u.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %q: %w", u.Username, err))
			continue
		}
		if ok {
			seeded++
		}
	}
	return seeded, errors.Join(errs...)
}
