package aclkit

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// Store persists registry state and audit entries in PostgreSQL through
// dbkit. It implements Persister (write-through of role changes) and
// AuditSink (durable audit log), so a durable guard is:
//
//	db, _ := dbkit.New(dbkit.Config{URL: databaseURL})
//	store := aclkit.NewStore(db)
//	_, _ = db.Migrate(ctx, store.Migrations())
//
//	registry, _ := store.Load(ctx)
//	guard := aclkit.NewGuard(registry,
//	    aclkit.WithPersister(store),
//	    aclkit.WithAuditSink(store),
//	)
type Store struct {
	db dbkit.IDB
}

// NewStore creates a Store over an existing dbkit connection.
func NewStore(db dbkit.IDB) *Store {
	return &Store{db: db}
}

// Migrations returns all database migrations required by the store.
// Use db.Migrate(ctx, store.Migrations()) to run them.
func (s *Store) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "aclkit-001",
			Description: "Create acl_role_members table",
			SQL: `
                CREATE TABLE IF NOT EXISTS acl_role_members (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    role BIGINT NOT NULL,
                    principal TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (role, principal)
                )`,
		},
		{
			ID:          "aclkit-002",
			Description: "Create acl_role_admins table",
			SQL: `
                CREATE TABLE IF NOT EXISTS acl_role_admins (
                    role BIGINT PRIMARY KEY,
                    admin_role BIGINT NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "aclkit-003",
			Description: "Create acl_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS acl_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor TEXT NOT NULL,
                    action TEXT NOT NULL,
                    role BIGINT NOT NULL,
                    target TEXT,
                    admin_role BIGINT,
                    prev_admin BIGINT,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                )`,
		},
	}
}

// ============================================================================
// WRITE-THROUGH PERSISTENCE (Persister)
// ============================================================================

// PersistGrant inserts a membership row. Granting an existing member is a
// no-op, matching the registry's idempotency.
func (s *Store) PersistGrant(ctx context.Context, role RoleID, principal Principal) error {
	row := &RoleMemberRow{
		Role:      roleToDB(role),
		Principal: principal.String(),
	}
	result, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (role, principal) DO NOTHING").
		Exec(ctx)
	return dbkit.WithErr(result, err, "PersistGrant").Err()
}

// PersistRevoke deletes a membership row. Revoking a non-member is a no-op.
func (s *Store) PersistRevoke(ctx context.Context, role RoleID, principal Principal) error {
	result, err := s.db.NewDelete().
		Table("acl_role_members").
		Where("role = ? AND principal = ?", roleToDB(role), principal.String()).
		Exec(ctx)
	return dbkit.WithErr(result, err, "PersistRevoke").Err()
}

// PersistAdminChange upserts a role's admin assignment.
func (s *Store) PersistAdminChange(ctx context.Context, role, newAdmin RoleID) error {
	row := &RoleAdminRow{
		Role:      roleToDB(role),
		AdminRole: roleToDB(newAdmin),
		UpdatedAt: time.Now(),
	}
	result, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (role) DO UPDATE").
		Set("admin_role = EXCLUDED.admin_role").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return dbkit.WithErr(result, err, "PersistAdminChange").Err()
}

// ============================================================================
// SNAPSHOTS
// ============================================================================

// Load rebuilds an in-memory Registry from the persisted state. Call it once
// at startup, before wiring the registry into a guard.
func (s *Store) Load(ctx context.Context) (*Registry, error) {
	reg := NewRegistry()

	var admins []RoleAdminRow
	if err := dbkit.WithErr1(s.db.NewSelect().Model(&admins).Scan(ctx), "LoadRoleAdmins").Err(); err != nil {
		return nil, err
	}
	for _, row := range admins {
		reg.SetAdmin(roleFromDB(row.Role), roleFromDB(row.AdminRole))
	}

	var members []RoleMemberRow
	if err := dbkit.WithErr1(s.db.NewSelect().Model(&members).Scan(ctx), "LoadRoleMembers").Err(); err != nil {
		return nil, err
	}
	for _, row := range members {
		principal, err := PrincipalFromHex(row.Principal)
		if err != nil {
			return nil, err
		}
		reg.GrantUnchecked(roleFromDB(row.Role), principal)
	}

	return reg, nil
}

// Save replaces the persisted state with a full snapshot of reg. Prefer
// write-through via WithPersister; Save is for migrating a registry that was
// built in memory.
func (s *Store) Save(ctx context.Context, reg *Registry) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		result, err := s.db.NewDelete().Table("acl_role_members").Where("TRUE").Exec(ctx)
		if err := dbkit.WithErr(result, err, "SaveClearMembers").Err(); err != nil {
			return err
		}
		result, err = s.db.NewDelete().Table("acl_role_admins").Where("TRUE").Exec(ctx)
		if err := dbkit.WithErr(result, err, "SaveClearAdmins").Err(); err != nil {
			return err
		}

		for _, data := range reg.Snapshot() {
			adminRow := &RoleAdminRow{
				Role:      roleToDB(data.Role),
				AdminRole: roleToDB(data.AdminRole),
				UpdatedAt: time.Now(),
			}
			result, err = s.db.NewInsert().Model(adminRow).Exec(ctx)
			if err := dbkit.WithErr(result, err, "SaveRoleAdmin").Err(); err != nil {
				return err
			}

			for _, member := range data.Members {
				memberRow := &RoleMemberRow{
					Role:      roleToDB(data.Role),
					Principal: member.String(),
				}
				result, err = s.db.NewInsert().Model(memberRow).Exec(ctx)
				if err := dbkit.WithErr(result, err, "SaveRoleMember").Err(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Transaction executes a function within a database transaction with
// automatic commit/rollback. If the function returns an error, the
// transaction is rolled back.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Check if we're already in a transaction
	if tx, ok := s.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}
	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// ============================================================================
// QUERY HELPERS
// ============================================================================

// MemberExists reports whether a persisted membership row exists. This is
// cheaper than Load when only one membership matters.
func (s *Store) MemberExists(ctx context.Context, role RoleID, principal Principal) bool {
	exists, err := dbkit.Exists[RoleMemberRow](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("role = ? AND principal = ?", roleToDB(role), principal.String())
	})
	if err != nil {
		return false
	}
	return exists
}

// CountMembers returns the number of persisted members of role.
func (s *Store) CountMembers(ctx context.Context, role RoleID) (int, error) {
	return dbkit.Count[RoleMemberRow](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("role = ?", roleToDB(role))
	})
}

// CountAllMembers returns the total number of persisted memberships.
func (s *Store) CountAllMembers(ctx context.Context) (int, error) {
	return dbkit.Count[RoleMemberRow](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}

// ============================================================================
// AUDIT LOG (AuditSink)
// ============================================================================

// Record implements AuditSink by inserting the entry into acl_audit_log.
func (s *Store) Record(ctx context.Context, entry AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToRow()).Exec(ctx)
	return dbkit.WithErr1(err, "RecordAudit").Err()
}

// GetAuditLog retrieves audit log entries with optional filters, newest
// first.
func (s *Store) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]AuditRow, error) {
	var rows []AuditRow
	q := s.db.NewSelect().Model(&rows)
	if !filter.Actor.IsZero() {
		q = q.Where("actor = ?", filter.Actor.String())
	}
	if !filter.Target.IsZero() {
		q = q.Where("target = ?", filter.Target.String())
	}
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if filter.FilterRole {
		q = q.Where("role = ?", roleToDB(filter.Role))
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err(); err != nil {
		return nil, err
	}

	return rows, nil
}
