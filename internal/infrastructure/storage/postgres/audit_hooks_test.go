package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/domain"
	"tally/internal/domain/entry"
)

type recordedChange struct {
	entityType string
	entityID   int64
	action     AuditAction
	changes    map[string]any
}

type fakeChangeLogger struct {
	logged []recordedChange
}

func (f *fakeChangeLogger) LogChange(ctx context.Context, entityType string, entityID int64, action AuditAction, changes map[string]any) error {
	f.logged = append(f.logged, recordedChange{entityType, entityID, action, changes})
	return nil
}

func TestRegisterEntryAudit(t *testing.T) {
	hooks := domain.NewHookRegistry[*entry.JournalEntry]()
	audit := &fakeChangeLogger{}
	RegisterEntryAudit(hooks, audit)

	e := entry.NewJournalEntry(1, 2, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	e.ID = 7
	e.Name = "INV/2024/00001"
	e.SequenceNumber = 1

	ctx := context.Background()
	require.NoError(t, hooks.RunAfterCreate(ctx, e))
	require.NoError(t, hooks.RunAfterPost(ctx, e))
	require.NoError(t, hooks.Run(ctx, domain.AfterCancel, e))
	require.NoError(t, hooks.Run(ctx, domain.AfterReset, e))
	require.NoError(t, hooks.RunBeforeDelete(ctx, e))

	var actions []AuditAction
	for _, c := range audit.logged {
		assert.Equal(t, "journal_entry", c.entityType)
		assert.Equal(t, int64(7), c.entityID)
		actions = append(actions, c.action)
	}
	assert.Equal(t, []AuditAction{
		AuditActionCreate, AuditActionPost, AuditActionCancel,
		AuditActionResetToDraft, AuditActionDelete,
	}, actions)
}

func TestRegisterEntryAuditHashedPost(t *testing.T) {
	hooks := domain.NewHookRegistry[*entry.JournalEntry]()
	audit := &fakeChangeLogger{}
	RegisterEntryAudit(hooks, audit)

	e := entry.NewJournalEntry(1, 2, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	e.ID = 9
	e.Name = "INV/2024/00002"
	hash := "$4$deadbeef"
	e.InalterableHash = &hash

	require.NoError(t, hooks.RunAfterPost(context.Background(), e))
	require.Len(t, audit.logged, 2)
	assert.Equal(t, AuditActionHash, audit.logged[1].action)
	assert.Equal(t, hash, audit.logged[1].changes["hash"])
}
