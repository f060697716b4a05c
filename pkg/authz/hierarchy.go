// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package authz computes effective permissions from the role hierarchy and
// answers access-control queries for the current user.
//
// The engine is advisory: it drives what the UI offers, while the server
// remains the authority on every request.
package authz

import (
	"sort"
	"strings"

	"github.com/consolehq/authcore/pkg/credentials"
)

// GlobalWildcard grants every permission.
const GlobalWildcard = "*"

// wildcardSuffix marks a prefix grant, e.g. "users:*".
const wildcardSuffix = ":*"

// Role is one entry in the hierarchy: a name, an integer seniority level and
// the permissions declared at that level.
type Role struct {
	Name        string
	Level       int
	Permissions []string
}

// Hierarchy is the static, process-wide role table. A role at level N is
// granted every permission declared at levels <= N in addition to its own.
// Role names are looked up case-insensitively; an unknown role simply yields
// zero permissions.
type Hierarchy struct {
	roles map[string]Role
}

// NewHierarchy builds a hierarchy from the given roles.
func NewHierarchy(roles ...Role) *Hierarchy {
	h := &Hierarchy{roles: make(map[string]Role, len(roles))}
	for _, r := range roles {
		h.roles[strings.ToLower(r.Name)] = r
	}
	return h
}

// DefaultHierarchy returns the role table used by the user-management
// console.
func DefaultHierarchy() *Hierarchy {
	return NewHierarchy(
		Role{Name: "viewer", Level: 1, Permissions: []string{
			"profile:view",
			"users:view",
		}},
		Role{Name: "member", Level: 2, Permissions: []string{
			"profile:edit",
			"reports:view",
		}},
		Role{Name: "support", Level: 3, Permissions: []string{
			"users:edit",
			"sessions:view",
			"sessions:revoke",
		}},
		Role{Name: "admin", Level: 4, Permissions: []string{
			"users:*",
			"roles:assign",
			"audit:view",
		}},
		Role{Name: "owner", Level: 5, Permissions: []string{
			GlobalWildcard,
		}},
	)
}

// Role looks up a role by name, case-insensitively.
func (h *Hierarchy) Role(name string) (Role, bool) {
	r, ok := h.roles[strings.ToLower(name)]
	return r, ok
}

// EffectivePermissions returns the union of the named role's own permissions
// and every permission declared at a lower or equal level, sorted for stable
// output. An unknown role yields an empty set.
func (h *Hierarchy) EffectivePermissions(roleName string) []string {
	role, ok := h.Role(roleName)
	if !ok {
		return nil
	}

	set := make(map[string]struct{})
	for _, r := range h.roles {
		if r.Level > role.Level {
			continue
		}
		for _, p := range r.Permissions {
			set[p] = struct{}{}
		}
	}

	perms := make([]string, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Strings(perms)
	return perms
}

// HasRole reports whether any of the user's roles is at least as senior as
// the queried role. This is a hierarchical check, not an exact-name match:
// an admin "has" the support role.
func (h *Hierarchy) HasRole(user credentials.User, roleName string) bool {
	required, ok := h.Role(roleName)
	if !ok {
		return false
	}

	for _, name := range user.Roles {
		if r, ok := h.Role(name); ok && r.Level >= required.Level {
			return true
		}
	}
	return false
}

// HasPermission reports whether the permission is in the user's effective
// set, either by exact match, by a wildcard grant sharing its prefix, or by
// the global wildcard. Unknown roles contribute nothing and never error.
func (h *Hierarchy) HasPermission(user credentials.User, permission string) bool {
	for _, name := range user.Roles {
		for _, granted := range h.EffectivePermissions(name) {
			if permissionMatches(granted, permission) {
				return true
			}
		}
	}
	return false
}

// AccessSpec describes a composite access requirement.
type AccessSpec struct {
	// Role, if set, is a hard gate: the user must hold a role at least as
	// senior as this one.
	Role string

	// Permissions is the list of permissions to check.
	Permissions []string

	// RequireAll selects "all of" semantics over Permissions; the default
	// is "any of".
	RequireAll bool
}

// HasAccess evaluates a composite access requirement. The role gate fails
// fast; the permission list honors RequireAll. An empty spec grants access.
func (h *Hierarchy) HasAccess(user credentials.User, spec AccessSpec) bool {
	if spec.Role != "" && !h.HasRole(user, spec.Role) {
		return false
	}

	if len(spec.Permissions) == 0 {
		return true
	}

	if spec.RequireAll {
		for _, p := range spec.Permissions {
			if !h.HasPermission(user, p) {
				return false
			}
		}
		return true
	}

	for _, p := range spec.Permissions {
		if h.HasPermission(user, p) {
			return true
		}
	}
	return false
}

// permissionMatches reports whether a granted permission entry covers the
// requested permission.
func permissionMatches(granted, requested string) bool {
	if granted == GlobalWildcard {
		return true
	}
	if granted == requested {
		return true
	}
	if strings.HasSuffix(granted, wildcardSuffix) {
		prefix := strings.TrimSuffix(granted, GlobalWildcard)
		return strings.HasPrefix(requested, prefix)
	}
	return false
}
