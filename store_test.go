package aclkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store tests require a PostgreSQL instance; they skip when none is
// reachable (see RequireDatabase).

func setupStoreTest(t *testing.T) (*Store, context.Context) {
	t.Helper()
	if !RequireDatabase(t) {
		return nil, nil
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store, ctx
}

// TestStoreMigrations validates migration identity without a database.
func TestStoreMigrations(t *testing.T) {
	store := NewStore(nil)
	migrations := store.Migrations()

	require.Len(t, migrations, 3)
	assert.Equal(t, "aclkit-001", migrations[0].ID)
	assert.Equal(t, "aclkit-002", migrations[1].ID)
	assert.Equal(t, "aclkit-003", migrations[2].ID)
	for _, m := range migrations {
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
	}
}

// TestStoreWriteThroughAndLoad validates that a guard's changes survive a
// Load into a fresh registry.
func TestStoreWriteThroughAndLoad(t *testing.T) {
	store, ctx := setupStoreTest(t)
	if store == nil {
		return
	}

	deployer := PrincipalFromString("store-deployer")
	bob := PrincipalFromString("store-bob")
	minter := RoleFromName("store-minter")
	minterAdmin := RoleFromName("store-minter-admin")

	guard := NewGuard(NewRegistry(), WithPersister(store), WithAuditSink(store))
	require.NoError(t, guard.Bootstrap(ctx, deployer))
	require.NoError(t, guard.GrantRole(ctx, minter, bob, deployer))
	require.NoError(t, guard.SetRoleAdmin(ctx, minter, minterAdmin, deployer))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.True(t, reloaded.HasRole(DefaultAdminRole, deployer))
	assert.True(t, reloaded.HasRole(minter, bob))
	assert.Equal(t, minterAdmin, reloaded.RoleAdmin(minter))

	// Revoke is written through too
	require.NoError(t, guard.RenounceRole(ctx, minter, bob))
	reloaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded.HasRole(minter, bob))
	// Admin assignment survives empty membership
	assert.Equal(t, minterAdmin, reloaded.RoleAdmin(minter))
}

// TestStorePersistGrantIdempotent validates the conflict handling on
// repeated grants.
func TestStorePersistGrantIdempotent(t *testing.T) {
	store, ctx := setupStoreTest(t)
	if store == nil {
		return
	}

	role := RoleFromName("store-idempotent")
	alice := PrincipalFromString("store-alice")

	require.NoError(t, store.PersistGrant(ctx, role, alice))
	require.NoError(t, store.PersistGrant(ctx, role, alice))

	count, err := store.CountMembers(ctx, role)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, store.MemberExists(ctx, role, alice))

	require.NoError(t, store.PersistRevoke(ctx, role, alice))
	assert.False(t, store.MemberExists(ctx, role, alice))
	// Revoking again is a no-op
	require.NoError(t, store.PersistRevoke(ctx, role, alice))
}

// TestStoreSaveSnapshot validates full snapshot persistence.
func TestStoreSaveSnapshot(t *testing.T) {
	store, ctx := setupStoreTest(t)
	if store == nil {
		return
	}

	reg := NewRegistry()
	role := RoleFromName("store-snapshot")
	admin := RoleFromName("store-snapshot-admin")
	alice := PrincipalFromString("store-snap-alice")
	bob := PrincipalFromString("store-snap-bob")

	reg.GrantUnchecked(role, alice)
	reg.GrantUnchecked(role, bob)
	reg.SetAdmin(role, admin)

	require.NoError(t, store.Save(ctx, reg))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded.HasRole(role, alice))
	assert.True(t, reloaded.HasRole(role, bob))
	assert.Equal(t, admin, reloaded.RoleAdmin(role))
}

// TestStoreAuditLog validates the durable audit sink and its filters.
func TestStoreAuditLog(t *testing.T) {
	store, ctx := setupStoreTest(t)
	if store == nil {
		return
	}

	deployer := PrincipalFromString("audit-deployer")
	bob := PrincipalFromString("audit-bob")
	minter := RoleFromName("audit-minter")

	guard := NewGuard(NewRegistry(), WithAuditSink(store))
	require.NoError(t, guard.Bootstrap(ctx, deployer))
	require.NoError(t, guard.GrantRole(ctx, minter, bob, deployer))
	_ = guard.GrantRole(ctx, minter, deployer, bob) // denied

	rows, err := store.GetAuditLog(ctx, NewAuditLogFilter().WithActor(deployer))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Equal(t, deployer.String(), row.Actor)
	}

	denied, err := store.GetAuditLog(ctx, NewAuditLogFilter().
		WithAction(AuditDenied).
		WithRole(minter))
	require.NoError(t, err)
	require.NotEmpty(t, denied)
	assert.Equal(t, bob.String(), denied[0].Actor)

	limited, err := store.GetAuditLog(ctx, NewAuditLogFilter().WithPagination(1, 0))
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
