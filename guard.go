package aclkit

import (
	"context"
	"sync"
	"time"
)

// Authorizer decides whether caller may act with the authority of role. The
// default authorizer is plain registry membership; hosts substitute a
// composed policy (membership plus extra conditions) without altering the
// guard's call sites.
type Authorizer interface {
	IsAuthorized(role RoleID, caller Principal) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(role RoleID, caller Principal) bool

// IsAuthorized implements Authorizer.
func (f AuthorizerFunc) IsAuthorized(role RoleID, caller Principal) bool {
	return f(role, caller)
}

// Persister receives successful state changes for write-through persistence.
// The guard calls it after the authorization check and before the in-memory
// mutation, so a persistence failure leaves the registry untouched.
// All methods must be idempotent: re-applying a change is a no-op.
type Persister interface {
	PersistGrant(ctx context.Context, role RoleID, principal Principal) error
	PersistRevoke(ctx context.Context, role RoleID, principal Principal) error
	PersistAdminChange(ctx context.Context, role, newAdmin RoleID) error
}

// Guard wraps a Registry's unchecked mutators with the admin-role check and
// exposes the caller-authenticated operations plus the bootstrap hook. The
// registry instance is explicit, not ambient: multiple independent guards and
// registries can coexist in one process.
//
// Every operation is a single atomic state transition: the authorization
// check runs first, and the registry mutator is only invoked after it
// succeeds, so a denied operation applies nothing.
type Guard struct {
	registry   *Registry
	authorizer Authorizer
	sink       AuditSink
	persister  Persister

	unguardedAdminChanges bool

	mu           sync.Mutex
	bootstrapped bool
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithAuthorizer replaces the default membership-based authorization check.
func WithAuthorizer(a Authorizer) GuardOption {
	return func(g *Guard) {
		g.authorizer = a
	}
}

// WithAuditSink sets the sink that receives role changes and denied attempts.
func WithAuditSink(s AuditSink) GuardOption {
	return func(g *Guard) {
		g.sink = s
	}
}

// WithPersister enables write-through persistence of role changes, typically
// with a *Store.
func WithPersister(p Persister) GuardOption {
	return func(g *Guard) {
		g.persister = p
	}
}

// WithUnguardedAdminChanges makes SetRoleAdmin skip its authorization check,
// leaving administration-rights reassignment gated by the host instead of
// the guard. Only use this when the host checks the caller itself.
func WithUnguardedAdminChanges() GuardOption {
	return func(g *Guard) {
		g.unguardedAdminChanges = true
	}
}

// NewGuard creates a Guard over registry.
//
// Example:
//
//	registry := aclkit.NewRegistry()
//	guard := aclkit.NewGuard(registry, aclkit.WithAuditSink(sink))
func NewGuard(registry *Registry, opts ...GuardOption) *Guard {
	g := &Guard{
		registry: registry,
		sink:     NopSink{},
	}
	g.authorizer = AuthorizerFunc(registry.HasRole)

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Registry returns the wrapped registry.
func (g *Guard) Registry() *Registry {
	return g.registry
}

// Bootstrap unconditionally grants DefaultAdminRole to deployer. It must be
// called exactly once, at system initialization, before any other operation;
// there is no admin yet, so there is no authorization check. A second call
// returns ErrAlreadyBootstrapped.
func (g *Guard) Bootstrap(ctx context.Context, deployer Principal) error {
	g.mu.Lock()
	if g.bootstrapped {
		g.mu.Unlock()
		return NewError(ErrAlreadyBootstrapped, "bootstrap may only run once").WithCaller(deployer)
	}
	g.bootstrapped = true
	g.mu.Unlock()

	if err := g.persistGrant(ctx, DefaultAdminRole, deployer); err != nil {
		g.mu.Lock()
		g.bootstrapped = false
		g.mu.Unlock()
		return err
	}
	g.registry.GrantUnchecked(DefaultAdminRole, deployer)

	g.emit(ctx, AuditEntry{
		Actor:  deployer,
		Action: AuditBootstrapped,
		Role:   DefaultAdminRole,
		Target: deployer,
	})
	return nil
}

// Bootstrapped reports whether Bootstrap has run.
func (g *Guard) Bootstrapped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bootstrapped
}

// RequireRole fails with ErrAccessDenied when caller is not authorized for
// role; otherwise it has no effect. It is the sole gate in front of the
// registry's mutators and consults the guard's Authorizer.
func (g *Guard) RequireRole(role RoleID, caller Principal) error {
	if g.authorizer.IsAuthorized(role, caller) {
		return nil
	}
	return NewError(ErrAccessDenied, "caller lacks required role").
		WithRole(role).
		WithCaller(caller)
}

// GrantRole adds target to role's member set. The caller must hold role's
// admin role; otherwise the call fails with ErrAccessDenied and membership is
// unchanged. Granting a role the target already holds is a silent success.
func (g *Guard) GrantRole(ctx context.Context, role RoleID, target, caller Principal) error {
	admin := g.registry.RoleAdmin(role)
	if err := g.RequireRole(admin, caller); err != nil {
		g.emitDenied(ctx, caller, role, target)
		return NewError(ErrAccessDenied, "caller does not hold the role's admin role").
			WithRole(role).
			WithAdminRole(admin).
			WithTarget(target).
			WithCaller(caller)
	}

	if err := g.persistGrant(ctx, role, target); err != nil {
		return err
	}
	if g.registry.GrantUnchecked(role, target) {
		g.emit(ctx, AuditEntry{
			Actor:  caller,
			Action: AuditGranted,
			Role:   role,
			Target: target,
		})
	}
	return nil
}

// RevokeRole removes target from role's member set. The caller must hold
// role's admin role; otherwise the call fails with ErrAccessDenied and
// membership is unchanged. Revoking a role the target never held is a silent
// success.
func (g *Guard) RevokeRole(ctx context.Context, role RoleID, target, caller Principal) error {
	admin := g.registry.RoleAdmin(role)
	if err := g.RequireRole(admin, caller); err != nil {
		g.emitDenied(ctx, caller, role, target)
		return NewError(ErrAccessDenied, "caller does not hold the role's admin role").
			WithRole(role).
			WithAdminRole(admin).
			WithTarget(target).
			WithCaller(caller)
	}

	if err := g.persistRevoke(ctx, role, target); err != nil {
		return err
	}
	if g.registry.RevokeUnchecked(role, target) {
		g.emit(ctx, AuditEntry{
			Actor:  caller,
			Action: AuditRevoked,
			Role:   role,
			Target: target,
		})
	}
	return nil
}

// RenounceRole removes caller's own membership in role. There is no admin
// check: a principal may always remove itself from any role.
func (g *Guard) RenounceRole(ctx context.Context, role RoleID, caller Principal) error {
	if err := g.persistRevoke(ctx, role, caller); err != nil {
		return err
	}
	if g.registry.RevokeUnchecked(role, caller) {
		g.emit(ctx, AuditEntry{
			Actor:  caller,
			Action: AuditRenounced,
			Role:   role,
			Target: caller,
		})
	}
	return nil
}

// SetRoleAdmin re-points role's admin role to newAdmin, preserving
// membership. By default the caller must hold DefaultAdminRole; the
// WithUnguardedAdminChanges option removes that check for hosts that gate
// the call themselves.
func (g *Guard) SetRoleAdmin(ctx context.Context, role, newAdmin RoleID, caller Principal) error {
	if !g.unguardedAdminChanges {
		if err := g.RequireRole(DefaultAdminRole, caller); err != nil {
			g.emitDenied(ctx, caller, role, Principal{})
			return NewError(ErrAccessDenied, "caller does not hold the default admin role").
				WithRole(role).
				WithAdminRole(DefaultAdminRole).
				WithCaller(caller)
		}
	}

	prev := g.registry.RoleAdmin(role)
	if err := g.persistAdminChange(ctx, role, newAdmin); err != nil {
		return err
	}
	g.registry.SetAdmin(role, newAdmin)

	if prev != newAdmin {
		g.emit(ctx, AuditEntry{
			Actor:     caller,
			Action:    AuditAdminChanged,
			Role:      role,
			AdminRole: newAdmin,
			PrevAdmin: prev,
		})
	}
	return nil
}

// HasRole reports whether principal is currently a member of role.
func (g *Guard) HasRole(role RoleID, principal Principal) bool {
	return g.registry.HasRole(role, principal)
}

// RoleAdmin returns role's admin role, or DefaultAdminRole when the role has
// never been touched.
func (g *Guard) RoleAdmin(role RoleID) RoleID {
	return g.registry.RoleAdmin(role)
}

// ============================================================================
// CONTEXT-AUTHENTICATED CONVENIENCE METHODS
// ============================================================================

// Grant is GrantRole with the caller taken from context.
// Returns ErrNoCaller when no caller identity is set.
func (g *Guard) Grant(ctx context.Context, role RoleID, target Principal) error {
	caller := GetCaller(ctx)
	if caller.IsZero() {
		return NewError(ErrNoCaller, "grant requires an authenticated caller").WithRole(role).WithTarget(target)
	}
	return g.GrantRole(ctx, role, target, caller)
}

// Revoke is RevokeRole with the caller taken from context.
// Returns ErrNoCaller when no caller identity is set.
func (g *Guard) Revoke(ctx context.Context, role RoleID, target Principal) error {
	caller := GetCaller(ctx)
	if caller.IsZero() {
		return NewError(ErrNoCaller, "revoke requires an authenticated caller").WithRole(role).WithTarget(target)
	}
	return g.RevokeRole(ctx, role, target, caller)
}

// Renounce is RenounceRole with the caller taken from context.
// Returns ErrNoCaller when no caller identity is set.
func (g *Guard) Renounce(ctx context.Context, role RoleID) error {
	caller := GetCaller(ctx)
	if caller.IsZero() {
		return NewError(ErrNoCaller, "renounce requires an authenticated caller").WithRole(role)
	}
	return g.RenounceRole(ctx, role, caller)
}

// SetAdmin is SetRoleAdmin with the caller taken from context.
// Returns ErrNoCaller when no caller identity is set.
func (g *Guard) SetAdmin(ctx context.Context, role, newAdmin RoleID) error {
	caller := GetCaller(ctx)
	if caller.IsZero() {
		return NewError(ErrNoCaller, "admin change requires an authenticated caller").WithRole(role)
	}
	return g.SetRoleAdmin(ctx, role, newAdmin, caller)
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func (g *Guard) persistGrant(ctx context.Context, role RoleID, principal Principal) error {
	if g.persister == nil {
		return nil
	}
	if err := g.persister.PersistGrant(ctx, role, principal); err != nil {
		return NewError(ErrStorage, "failed to persist grant").WithRole(role).WithTarget(principal)
	}
	return nil
}

func (g *Guard) persistRevoke(ctx context.Context, role RoleID, principal Principal) error {
	if g.persister == nil {
		return nil
	}
	if err := g.persister.PersistRevoke(ctx, role, principal); err != nil {
		return NewError(ErrStorage, "failed to persist revoke").WithRole(role).WithTarget(principal)
	}
	return nil
}

func (g *Guard) persistAdminChange(ctx context.Context, role, newAdmin RoleID) error {
	if g.persister == nil {
		return nil
	}
	if err := g.persister.PersistAdminChange(ctx, role, newAdmin); err != nil {
		return NewError(ErrStorage, "failed to persist admin change").WithRole(role).WithAdminRole(newAdmin)
	}
	return nil
}

func (g *Guard) emitDenied(ctx context.Context, caller Principal, role RoleID, target Principal) {
	g.emit(ctx, AuditEntry{
		Actor:  caller,
		Action: AuditDenied,
		Role:   role,
		Target: target,
	})
}

// emit stamps the entry with the time and request metadata from context and
// hands it to the sink. Sink failures do not fail the operation.
func (g *Guard) emit(ctx context.Context, entry AuditEntry) {
	entry.Timestamp = time.Now()

	ac := GetAuditContext(ctx)
	entry.IPAddress = ac.IPAddress
	entry.UserAgent = ac.UserAgent
	entry.RequestID = ac.RequestID

	_ = g.sink.Record(ctx, entry)
}
