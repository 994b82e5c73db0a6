package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// UserWithRole is a user listing entry for administrators.
type UserWithRole struct {
	core.User
	Role core.Role `json:"role"`
}

// AdminService guards operations that act across users behind role checks.
type AdminService struct {
	users  ports.UserStore
	engine *RecurrenceEngine
}

func NewAdminService(users ports.UserStore, engine *RecurrenceEngine) *AdminService {
	return &AdminService{users: users, engine: engine}
}

// RoleOf returns the user's role. A user without a profile has the default role.
func (s *AdminService) RoleOf(ctx context.Context, userID int64) (core.Role, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return "", err
	}
	p, err := s.users.GetProfile(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// Authorize returns core.ErrForbidden unless the user's role grants c.
func (s *AdminService) Authorize(ctx context.Context, userID int64, c core.Capability) error {
	role, err := s.RoleOf(ctx, userID)
	if err != nil {
		return err
	}
	return core.Require(role, c)
}

func (s *AdminService) ListUsers(ctx context.Context, actorID int64) ([]UserWithRole, error) {
	if err := s.Authorize(ctx, actorID, core.CapListUsers); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserWithRole, 0, len(users))
	for _, u := range users {
		role, err := s.RoleOf(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, UserWithRole{User: u, Role: role})
	}
	return out, nil
}

// RunRecurring triggers a scheduler pass on behalf of an administrator.
func (s *AdminService) RunRecurring(ctx context.Context, actorID int64) (int, error) {
	if err := s.Authorize(ctx, actorID, core.CapRunScheduler); err != nil {
		return 0, err
	}
	return s.engine.ProcessDue(ctx)
}

// SetRole assigns role to the user. It is meant for trusted maintenance tools
// and performs no actor check.
func (s *AdminService) SetRole(ctx context.Context, userID int64, role core.Role) (core.Profile, error) {
	if err := role.Validate(); err != nil {
		return core.Profile{}, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return core.Profile{}, err
	}
	p, err := s.users.SaveProfile(ctx, core.Profile{UserID: userID, Role: role})
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}
