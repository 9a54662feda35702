package model

import (
	"fmt"
	"strings"
)

// Role determines which bugs make up a user's base view.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
	RoleManager   Role = "manager"
)

// AllRoles returns the supported roles in menu order.
func AllRoles() []Role {
	return []Role{RoleDeveloper, RoleTester, RoleManager}
}

// ParseRole normalizes s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleDeveloper, RoleTester, RoleManager:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q (want developer, tester or manager)", s)
}

// Title is the heading shown above the role's bug table.
func (r Role) Title() string {
	switch r {
	case RoleDeveloper:
		return "My Assigned Bugs"
	case RoleTester:
		return "Bugs I Reported"
	default:
		return "Team Bugs"
	}
}

// Description is the one-line blurb under the title.
func (r Role) Description() string {
	switch r {
	case RoleDeveloper:
		return "Bugs that are currently assigned to you"
	case RoleTester:
		return "Bugs that you have reported"
	default:
		return "All bugs across your team"
	}
}

// Label is the capitalized role name.
func (r Role) Label() string {
	return titleWords(string(r))
}

// Users names the current person for each role-scoped view.
type Users struct {
	Developer string
	Tester    string
}

// InScope reports whether b belongs in role's base view.
func (r Role) InScope(b *Bug, users Users) bool {
	switch r {
	case RoleDeveloper:
		name, ok := b.Assignee()
		return ok && name == users.Developer
	case RoleTester:
		return b.ReportedBy == users.Tester
	default:
		return true
	}
}

// Scope returns the bugs visible to role, preserving input order. The
// returned slice shares no backing array with bugs.
func Scope(bugs []Bug, role Role, users Users) []Bug {
	out := make([]Bug, 0, len(bugs))
	for i := range bugs {
		if role.InScope(&bugs[i], users) {
			out = append(out, bugs[i])
		}
	}
	return out
}
