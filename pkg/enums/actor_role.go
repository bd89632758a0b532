package enums

import "fmt"

// ActorRole identifies who is calling the API.
type ActorRole string

const (
	ActorRoleBuyer  ActorRole = "buyer"
	ActorRoleSeller ActorRole = "seller"
	ActorRoleAdmin  ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleBuyer,
	ActorRoleSeller,
	ActorRoleAdmin,
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
