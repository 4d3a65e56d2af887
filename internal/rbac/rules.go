package rbac

import "strings"

// RolePermissions is the default policy. Patterns ending in "*" match any
// permission with that prefix.
var RolePermissions = map[string][]string{
	"student": {
		"study:read",
		"flashcard:create",
		"textbook:read",
		"textbook:import",
		"textbook:generate",
		"exam:take",
		"result:view-own",
		"result:delete-own",
		"ai:*",
		"chat:own",
	},
	"admin": {
		"*",
	},
}

// Checker answers permission questions against a role policy.
type Checker struct {
	policy map[string][]string
}

// NewChecker uses RolePermissions when policy is nil.
func NewChecker(policy map[string][]string) *Checker {
	if policy == nil {
		policy = RolePermissions
	}
	return &Checker{policy: policy}
}

func (c *Checker) Has(role, perm string) bool {
	for _, pattern := range c.policy[role] {
		if matchPerm(pattern, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Permissions lists the patterns granted to role.
func (c *Checker) Permissions(role string) []string {
	return append([]string(nil), c.policy[role]...)
}

func matchPerm(pattern, perm string) bool {
	switch {
	case pattern == "*", pattern == perm:
		return true
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
