package kernel

import (
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Role is the identity kind the session store attaches to a caller.
type Role string

const (
	RoleClient     Role = "client"
	RoleRestaurant Role = "restaurant"
	RoleManager    Role = "manager"
	RoleDriver     Role = "driver"
)

var ErrCallerIsNotConstructed = errs.NewValueIsRequiredError("caller must be created via NewCaller")

// ParseRole accepts the role names issued by the identity store. "livreur" is an
// accepted alias of driver.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleClient):
		return RoleClient, nil
	case string(RoleRestaurant):
		return RoleRestaurant, nil
	case string(RoleManager):
		return RoleManager, nil
	case string(RoleDriver), "livreur":
		return RoleDriver, nil
	default:
		return "", errs.NewValueIsInvalidError("role")
	}
}

// Caller is the authenticated identity an operation runs on behalf of.
// The engine trusts it as given.
type Caller struct {
	id    string
	role  Role
	guard guard.ConstructorGuard
}

func NewCaller(id string, role Role) (Caller, error) {
	if strings.TrimSpace(id) == "" {
		return Caller{}, errs.NewValueIsRequiredError("caller id")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Caller{}, err
	}
	return Caller{id: id, role: role, guard: guard.NewConstructorGuard()}, nil
}

func (c Caller) ID() string { return c.id }

func (c Caller) Role() Role { return c.role }

func (c Caller) Is(role Role) bool { return c.role == role }

func (c Caller) Validate() error {
	return c.guard.Validate(ErrCallerIsNotConstructed)
}

// Require returns Unauthorized unless the caller holds role.
func (c Caller) Require(role Role, action string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.role != role {
		return errs.NewUnauthorizedError(c.id, action)
	}
	return nil
}
