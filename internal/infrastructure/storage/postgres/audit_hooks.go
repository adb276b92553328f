package postgres

import (
	"context"

	"tally/internal/domain"
	"tally/internal/domain/entry"
)

// entryChangeLogger is the slice of the audit service the entry hooks need.
type entryChangeLogger interface {
	LogChange(ctx context.Context, entityType string, entityID int64, action AuditAction, changes map[string]any) error
}

const auditEntityEntry = "journal_entry"

// RegisterEntryAudit attaches audit logging to the journal entry lifecycle.
// Before-delete runs inside the delete transaction; the after-hooks run once
// the write has committed, so a failed audit insert never rolls a document
// back.
func RegisterEntryAudit(hooks *domain.HookRegistry[*entry.JournalEntry], audit entryChangeLogger) {
	hooks.OnAfterCreate(func(ctx context.Context, e *entry.JournalEntry) error {
		return audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionCreate, map[string]any{
			"journal_id": e.JournalID,
			"date":       e.Date.Format("2006-01-02"),
			"doc_type":   e.DocType,
			"lines":      len(e.Lines),
		})
	})

	hooks.OnAfterUpdate(func(ctx context.Context, e *entry.JournalEntry) error {
		return audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionUpdate, map[string]any{
			"name":  e.Name,
			"date":  e.Date.Format("2006-01-02"),
			"lines": len(e.Lines),
		})
	})

	hooks.OnBeforeDelete(func(ctx context.Context, e *entry.JournalEntry) error {
		return audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionDelete, map[string]any{
			"name":            e.Name,
			"state":           e.State,
			"sequence_number": e.SequenceNumber,
		})
	})

	hooks.OnAfterPost(func(ctx context.Context, e *entry.JournalEntry) error {
		if err := audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionPost, map[string]any{
			"name":            e.Name,
			"sequence_number": e.SequenceNumber,
			"made_gap":        e.MadeSequenceGap,
		}); err != nil {
			return err
		}
		if e.IsHashed() {
			return audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionHash, map[string]any{
				"name": e.Name,
				"hash": *e.InalterableHash,
			})
		}
		return nil
	})

	hooks.OnAfterCancel(func(ctx context.Context, e *entry.JournalEntry) error {
		return audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionCancel, map[string]any{
			"name": e.Name,
		})
	})

	hooks.OnAfterReset(func(ctx context.Context, e *entry.JournalEntry) error {
		return audit.LogChange(ctx, auditEntityEntry, e.ID, AuditActionResetToDraft, map[string]any{
			"name": e.Name,
		})
	})
}
