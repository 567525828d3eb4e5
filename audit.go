package aclkit

import (
	"context"
	"sync"
	"time"
)

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditBootstrapped AuditAction = "bootstrapped"
	AuditGranted      AuditAction = "granted"
	AuditRevoked      AuditAction = "revoked"
	AuditRenounced    AuditAction = "renounced"
	AuditAdminChanged AuditAction = "admin_changed"
	AuditDenied       AuditAction = "denied"
)

// AuditEntry records one role change or denied attempt. The guard emits an
// entry only when membership or an admin assignment actually changed;
// idempotent no-op grants and revokes stay silent.
type AuditEntry struct {
	Timestamp time.Time
	Actor     Principal
	Action    AuditAction
	Role      RoleID

	// Target of the action (zero for admin changes)
	Target Principal

	// Admin assignment before and after (admin_changed only)
	AdminRole RoleID
	PrevAdmin RoleID

	// Request metadata for forensics
	IPAddress string
	UserAgent string
	RequestID string
}

// ToRow converts an AuditEntry to its persistence model.
func (e *AuditEntry) ToRow() *AuditRow {
	target := ""
	if !e.Target.IsZero() {
		target = e.Target.String()
	}
	return &AuditRow{
		Timestamp: e.Timestamp,
		Actor:     e.Actor.String(),
		Action:    string(e.Action),
		Role:      roleToDB(e.Role),
		Target:    target,
		AdminRole: roleToDB(e.AdminRole),
		PrevAdmin: roleToDB(e.PrevAdmin),
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		RequestID: e.RequestID,
	}
}

// AuditSink receives audit entries from a Guard. Sink failures do not fail
// the operation that produced the entry.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// NopSink discards all audit entries. It is the guard's default sink.
type NopSink struct{}

// Record implements AuditSink.
func (NopSink) Record(ctx context.Context, entry AuditEntry) error {
	return nil
}

// MemorySink collects audit entries in memory. Intended for tests and for
// hosts that ship entries elsewhere themselves.
type MemorySink struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements AuditSink.
func (s *MemorySink) Record(ctx context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries in arrival order.
func (s *MemorySink) Entries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of recorded entries.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset discards all recorded entries.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
