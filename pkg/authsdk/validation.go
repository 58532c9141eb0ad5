package authsdk

import (
	"net/mail"
	"slices"
	"strings"
)

const (
	requiredReason = "required"
	minPassword    = 8
	maxPassword    = 128
)

// Roles accepted by CreateAccountRequest.
var Roles = []string{"admin", "doctor", "secretary", "patient"}

// Validate checks if the bootstrap request fields are valid.
// Returns a map of field names to error messages, or nil if all fields are valid.
func (b BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)

	validateName(errs, "admin_name", b.AdminName)
	validateEmail(errs, "admin_email", b.AdminEmail)
	validatePassword(errs, "admin_password", b.AdminPassword)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate checks the account fields the server would reject.
func (c CreateAccountRequest) Validate() map[string]string {
	errs := make(map[string]string)

	validateName(errs, "name", c.Name)
	validateEmail(errs, "email", c.Email)
	validatePassword(errs, "password", c.Password)

	role := strings.ToLower(strings.TrimSpace(c.Role))
	switch {
	case role == "":
		errs["role"] = requiredReason
	case !slices.Contains(Roles, role):
		errs["role"] = "must be one of " + strings.Join(Roles, ", ")
	}

	if len(c.Phone) > 32 {
		errs["phone"] = "too long (max 32)"
	}
	if len(c.Address) > 256 {
		errs["address"] = "too long (max 256)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateName(errs map[string]string, field, v string) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		errs[field] = requiredReason
	case len(v) > 100:
		errs[field] = "too long (max 100)"
	}
}

func validateEmail(errs map[string]string, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		errs[field] = requiredReason
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		errs[field] = "must be a plain email address"
	}
}

func validatePassword(errs map[string]string, field, v string) {
	switch {
	case v == "":
		errs[field] = requiredReason
	case len(v) < minPassword:
		errs[field] = "too short (min 8)"
	case len(v) > maxPassword:
		errs[field] = "too long (max 128)"
	}
}
