package aclkit

import "sync"

// Registry owns the mapping from RoleID to role state and exposes the
// unchecked building blocks: mutators and queries with no authorization
// logic. Gate mutations through a Guard.
//
// Absence of an entry is a valid, meaningful state equivalent to "empty
// membership, admin = DefaultAdminRole". That defaulting is centralized in
// the registry's queries; callers never observe a difference between an
// absent role and an untouched empty one. Once an entry exists it is never
// deleted, even when membership drops to zero, so an explicit admin
// assignment survives an empty role.
//
// A Registry is safe for concurrent use: all state is protected by a single
// mutex and every mutator call is atomic at the entry granularity.
type Registry struct {
	mu    sync.RWMutex
	roles map[RoleID]*roleData
}

type roleData struct {
	members   map[Principal]struct{}
	adminRole RoleID
}

// NewRegistry creates an empty role registry.
func NewRegistry() *Registry {
	return &Registry{
		roles: make(map[RoleID]*roleData),
	}
}

// ensure returns the entry for role, creating it with DefaultAdminRole as
// admin when absent. Caller must hold the write lock.
func (r *Registry) ensure(role RoleID) *roleData {
	rd, ok := r.roles[role]
	if !ok {
		rd = &roleData{
			members:   make(map[Principal]struct{}),
			adminRole: DefaultAdminRole,
		}
		r.roles[role] = rd
	}
	return rd
}

// GrantUnchecked adds principal to role's member set with no authorization
// check, creating the role entry when absent. It is idempotent: granting an
// existing member changes nothing. Reports whether membership changed.
func (r *Registry) GrantUnchecked(role RoleID, principal Principal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rd := r.ensure(role)
	if _, ok := rd.members[principal]; ok {
		return false
	}
	rd.members[principal] = struct{}{}
	return true
}

// RevokeUnchecked removes principal from role's member set with no
// authorization check. Revoking a non-member, or a role with no entry, is a
// silent no-op. Reports whether membership changed.
func (r *Registry) RevokeUnchecked(role RoleID, principal Principal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rd, ok := r.roles[role]
	if !ok {
		return false
	}
	if _, ok := rd.members[principal]; !ok {
		return false
	}
	delete(rd.members, principal)
	return true
}

// SetAdmin sets role's admin role, preserving existing membership, or
// initializing an empty entry when the role was never touched. The new admin
// role may itself have no entry yet; that is not an error, it is created
// lazily on first touch.
func (r *Registry) SetAdmin(role, newAdmin RoleID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensure(role).adminRole = newAdmin
}

// RoleAdmin returns role's admin role, or DefaultAdminRole when the role has
// no entry.
func (r *Registry) RoleAdmin(role RoleID) RoleID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rd, ok := r.roles[role]; ok {
		return rd.adminRole
	}
	return DefaultAdminRole
}

// HasRole reports whether principal is currently a member of role. A role
// with no entry has no members.
func (r *Registry) HasRole(role RoleID, principal Principal) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.roles[role]
	if !ok {
		return false
	}
	_, ok = rd.members[principal]
	return ok
}

// MemberCount returns the number of members of role.
func (r *Registry) MemberCount(role RoleID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rd, ok := r.roles[role]; ok {
		return len(rd.members)
	}
	return 0
}

// Members returns a snapshot of role's membership. Order is unspecified.
func (r *Registry) Members(role RoleID) []Principal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.roles[role]
	if !ok {
		return nil
	}
	members := make([]Principal, 0, len(rd.members))
	for m := range rd.members {
		members = append(members, m)
	}
	return members
}

// Roles returns the IDs of all roles with an entry. Order is unspecified.
func (r *Registry) Roles() []RoleID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]RoleID, 0, len(r.roles))
	for id := range r.roles {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of role entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.roles)
}

// Snapshot returns a point-in-time copy of every role entry. Useful for
// persistence and diagnostics; mutating the result does not affect the
// registry.
func (r *Registry) Snapshot() []RoleData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoleData, 0, len(r.roles))
	for id, rd := range r.roles {
		data := RoleData{
			Role:      id,
			AdminRole: rd.adminRole,
			Members:   make([]Principal, 0, len(rd.members)),
		}
		for m := range rd.members {
			data.Members = append(data.Members, m)
		}
		out = append(out, data)
	}
	return out
}
