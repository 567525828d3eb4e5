package aclkit

import "time"

// AuditLogFilter provides options for filtering audit log queries.
// The zero Principal and empty Action mean "no filter"; role filtering uses
// an explicit flag because DefaultAdminRole is a valid id 0.
type AuditLogFilter struct {
	// Filter by actor who performed the action
	Actor Principal

	// Filter by target principal of the action
	Target Principal

	// Filter by action type
	Action AuditAction

	// Filter by role (only applied when FilterRole is set)
	Role       RoleID
	FilterRole bool

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: 100,
	}
}

// WithActor sets the actor filter.
func (f AuditLogFilter) WithActor(actor Principal) AuditLogFilter {
	f.Actor = actor
	return f
}

// WithTarget sets the target principal filter.
func (f AuditLogFilter) WithTarget(target Principal) AuditLogFilter {
	f.Target = target
	return f
}

// WithAction sets the action type filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = action
	return f
}

// WithRole sets the role filter.
func (f AuditLogFilter) WithRole(role RoleID) AuditLogFilter {
	f.Role = role
	f.FilterRole = true
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
