package aclkit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuditMemorySink validates the in-memory sink.
func TestAuditMemorySink(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()
	assert.Zero(t, sink.Len())

	alice := PrincipalFromString("alice")
	require.NoError(t, sink.Record(ctx, AuditEntry{Actor: alice, Action: AuditGranted, Role: 1}))
	require.NoError(t, sink.Record(ctx, AuditEntry{Actor: alice, Action: AuditRevoked, Role: 1}))

	entries := sink.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, AuditGranted, entries[0].Action)
	assert.Equal(t, AuditRevoked, entries[1].Action)

	// Entries returns a copy
	entries[0].Action = AuditDenied
	assert.Equal(t, AuditGranted, sink.Entries()[0].Action)

	sink.Reset()
	assert.Zero(t, sink.Len())
}

// TestAuditMemorySinkConcurrent validates concurrent recording.
func TestAuditMemorySinkConcurrent(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Record(ctx, AuditEntry{Action: AuditGranted})
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, sink.Len())
}

// TestAuditNopSink validates that the default sink accepts everything.
func TestAuditNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.Record(context.Background(), AuditEntry{Action: AuditGranted}))
}
