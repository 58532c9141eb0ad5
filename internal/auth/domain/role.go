package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Role is one of the fixed account roles of the office.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleSecretary Role = "secretary"
	RolePatient   Role = "patient"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleSecretary, RolePatient}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Roles, r) {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// RoleCapabilities describes what the auth flow demands of a role.
type RoleCapabilities struct {
	// RequiresSecondFactor forces a TOTP step after the password check.
	RequiresSecondFactor bool
}

// RolePolicy maps each role to its capabilities. Roles missing from the
// table get the zero value.
type RolePolicy map[Role]RoleCapabilities

// DefaultRolePolicy requires a second factor from doctors only.
func DefaultRolePolicy() RolePolicy {
	return NewRolePolicy(RoleDoctor)
}

// NewRolePolicy builds a policy where exactly the given roles require a
// second factor.
func NewRolePolicy(secondFactorRoles ...Role) RolePolicy {
	p := make(RolePolicy, len(Roles))
	for _, r := range Roles {
		p[r] = RoleCapabilities{RequiresSecondFactor: slices.Contains(secondFactorRoles, r)}
	}
	return p
}

// ParseRolePolicy reads a comma separated list of roles that require a
// second factor, e.g. "doctor,admin". An empty string disables 2FA for all.
func ParseRolePolicy(list string) (RolePolicy, error) {
	var roles []Role
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return NewRolePolicy(roles...), nil
}

// RequiresSecondFactor reports whether role must pass a TOTP check.
func (p RolePolicy) RequiresSecondFactor(r Role) bool {
	return p[r].RequiresSecondFactor
}
