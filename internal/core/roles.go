package core

import "fmt"

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Capabilities guarded by role checks.
const (
	CapManageOwnData  Capability = "manage_own_data"
	CapListUsers      Capability = "list_users"
	CapRunScheduler   Capability = "run_scheduler"
	CapSeedCategories Capability = "seed_categories"
)

type (
	Role       string
	Capability string
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:  {CapManageOwnData},
	RoleAdmin: {CapManageOwnData, CapListUsers, CapRunScheduler, CapSeedCategories},
}

func (r Role) Validate() error {
	if _, ok := roleCapabilities[r]; !ok {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, string(r))
	}
	return nil
}

// Can reports whether the role grants the capability.
func Can(role Role, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden when the role lacks the capability.
func Require(role Role, c Capability) error {
	if !Can(role, c) {
		return fmt.Errorf("%w: role %q lacks %q", ErrForbidden, string(role), string(c))
	}
	return nil
}
