package enums

import "fmt"

// Role represents an account-level permissions role. A user may hold several
// at once; roles are only ever added, never stripped.
type Role string

const (
	RoleUser          Role = "user"
	RoleFamilyManager Role = "familyManager"
	RoleAdmin         Role = "admin"
)

var validRoles = []Role{
	RoleUser,
	RoleFamilyManager,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// RoleSet is an additive collection of roles.
type RoleSet []Role

// Has reports whether the set contains the role.
func (s RoleSet) Has(role Role) bool {
	for _, candidate := range s {
		if candidate == role {
			return true
		}
	}
	return false
}

// Add appends the role when absent and returns the resulting set. Roles are
// never removed once granted.
func (s RoleSet) Add(role Role) RoleSet {
	if s.Has(role) {
		return s
	}
	return append(s, role)
}

// Strings converts the set into its string representation.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, role := range s {
		out = append(out, string(role))
	}
	return out
}

// RoleSetFromStrings builds a set from raw values, skipping unknown entries.
func RoleSetFromStrings(values []string) RoleSet {
	var set RoleSet
	for _, value := range values {
		if role, err := ParseRole(value); err == nil {
			set = set.Add(role)
		}
	}
	return set
}
