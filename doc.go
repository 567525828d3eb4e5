// Package aclkit provides an embeddable role-based access-control core with
// delegated administration.
//
// ACLKit tracks which principals hold which roles and enforces that only an
// authorized principal can change role membership. Every role is governed by
// an admin role: the members of a role's admin role are the only callers
// allowed to grant or revoke that role. A role's admin role can itself be
// re-pointed, so administration of any role can be delegated without handing
// out root privileges.
//
// # Core Concepts
//
// RoleID: an opaque integer identifier for a role. Derive one from a
// human-readable name with RoleFromName, or assign your own constants.
// DefaultAdminRole (id 0) is reserved: it is its own admin and is granted to
// the deploying principal at bootstrap.
//
// Principal: a canonical fixed-width identifier for an account or caller.
// Only equality matters. Derive one from whatever richer address
// representation your host uses with PrincipalFromString or
// PrincipalFromBytes.
//
// Registry: the data layer. It owns the RoleID -> role state mapping and
// exposes unchecked mutators and queries with no authorization logic.
// A role with no entry is a valid state: empty membership, admin =
// DefaultAdminRole.
//
// Guard: the authorization layer. It wraps a Registry's mutators with the
// admin-role check and exposes the caller-authenticated operations.
//
// # Basic Usage
//
//	// 1. Create the registry and guard
//	registry := aclkit.NewRegistry()
//	guard := aclkit.NewGuard(registry)
//
//	// 2. Bootstrap: grant DefaultAdminRole to the deploying principal
//	deployer := aclkit.PrincipalFromString("alice@example.com")
//	if err := guard.Bootstrap(ctx, deployer); err != nil {
//	    log.Fatal(err)
//	}
//
//	// 3. Define roles and grant them
//	minter := aclkit.RoleFromName("minter")
//	bob := aclkit.PrincipalFromString("bob@example.com")
//	if err := guard.GrantRole(ctx, minter, bob, deployer); err != nil {
//	    // deployer holds DefaultAdminRole, the default admin of every role
//	}
//
//	// 4. Check membership
//	if guard.HasRole(minter, bob) {
//	    // bob can mint
//	}
//
//	// 5. Delegate administration of a role to another role
//	minterAdmin := aclkit.RoleFromName("minter-admin")
//	_ = guard.SetRoleAdmin(ctx, minter, minterAdmin, deployer)
//
// # Authorization Hook
//
// The guard's sole gate is RequireRole, which consults an injectable
// Authorizer. The default authorizer is plain registry membership; substitute
// a composed policy without touching call sites:
//
//	guard := aclkit.NewGuard(registry,
//	    aclkit.WithAuthorizer(aclkit.AuthorizerFunc(func(role aclkit.RoleID, caller aclkit.Principal) bool {
//	        return registry.HasRole(role, caller) && !suspended(caller)
//	    })),
//	)
//
// # Renouncing
//
// A principal may always remove its own membership in any role, regardless of
// who administers that role:
//
//	_ = guard.RenounceRole(ctx, minter, bob)
//
// # Audit Log
//
// Successful state changes and denied attempts are reported to an AuditSink.
// Use NewMemorySink for in-process inspection, or a Store to persist entries
// in Postgres and query them with AuditLogFilter.
//
// # Persistence
//
// The registry is in-memory. Hosts that need durability wrap the guard with a
// Store (DBKit/bun over Postgres): role changes are written through as they
// happen and Load rebuilds a registry from the persisted state at startup.
//
// # Concurrency
//
// A Registry serializes all access behind a single mutex, so each operation
// is atomic at the entry granularity. The guard performs its authorization
// check before invoking any mutator, so a denied operation leaves state
// untouched.
package aclkit
