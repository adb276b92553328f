package entry

import (
	"context"
	"testing"

	"tally/internal/core/apperror"
)

func TestPostAssignsSequence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	if _, err := f.svc.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !e.IsUnassigned() || e.State != StateDraft {
		t.Fatalf("draft entries stay unnumbered: name=%q state=%s", e.Name, e.State)
	}

	posted, _, err := f.svc.Post(ctx, e.ID)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if posted.Name != "INV/2024/00001" {
		t.Errorf("name = %q", posted.Name)
	}
	if posted.State != StatePosted || !posted.PostedBefore {
		t.Errorf("state=%s postedBefore=%v", posted.State, posted.PostedBefore)
	}
	if posted.SequencePrefix != "INV/2024/" || posted.SequenceNumber != 1 {
		t.Errorf("prefix=%q number=%d", posted.SequencePrefix, posted.SequenceNumber)
	}
}

func TestGaplessChainScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var names []string
	for i := 0; i < 3; i++ {
		e := balanced(1, day(2024, 1, 5+i), "100")
		if _, err := f.svc.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
		posted, _, err := f.svc.Post(ctx, e.ID)
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		names = append(names, posted.Name)
		if posted.MadeSequenceGap {
			t.Errorf("%s flagged a gap in a contiguous chain", posted.Name)
		}
	}

	want := []string{"INV/2024/00001", "INV/2024/00002", "INV/2024/00003"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestPostUnbalancedRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := NewJournalEntry(1, 1, day(2024, 1, 5))
	e.DocType = DocInvoice // no auto-balancing
	e.Lines = []*EntryLine{
		{AccountID: 400, Debit: mustMoney("100")},
		{AccountID: 700, Credit: mustMoney("99")},
	}
	if _, err := f.svc.Create(ctx, e); err == nil {
		t.Fatal("Create must reject an unbalanced invoice")
	}

	e.DocType = DocEntry
	if _, err := f.svc.Create(ctx, e); err == nil {
		t.Fatal("no suspense account configured, creation still fails")
	}
}

func TestCreateAutoBalancesOnSuspense(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	suspense := int64(999)
	f.companies[1].SuspenseAccountID = &suspense

	e := NewJournalEntry(1, 1, day(2024, 1, 5))
	e.Lines = []*EntryLine{
		{AccountID: 400, Debit: mustMoney("100")},
		{AccountID: 700, Credit: mustMoney("80")},
	}
	if _, err := f.svc.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(e.Lines) != 3 || e.Lines[2].AccountID != suspense {
		t.Fatalf("expected a suspense line, lines=%d", len(e.Lines))
	}
}

func TestPostRespectsLockDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	lock := day(2024, 6, 30)
	f.companies[1].FiscalLockDate = &lock

	e := balanced(1, day(2024, 5, 10), "100")
	if _, err := f.svc.Create(ctx, e); !apperror.IsCode(err, apperror.CodePeriodLocked) {
		t.Fatalf("expected PERIOD_LOCKED, got %v", err)
	}

	e2 := balanced(1, day(2024, 7, 1), "100")
	if _, err := f.svc.Create(ctx, e2); err != nil {
		t.Fatalf("dates after the lock pass: %v", err)
	}
	if _, _, err := f.svc.Post(ctx, e2.ID); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestUpdateHashProtected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	if _, err := f.svc.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := f.svc.Post(ctx, e.ID); err != nil {
		t.Fatalf("Post: %v", err)
	}
	hash := "$4$deadbeef"
	e.InalterableHash = &hash

	changed := *e
	changed.Date = day(2024, 2, 1)
	if _, err := f.svc.Update(ctx, &changed); !apperror.IsCode(err, apperror.CodeEntryHashProtected) {
		t.Fatalf("expected ENTRY_HASH_PROTECTED, got %v", err)
	}

	lines := make([]*EntryLine, len(e.Lines))
	for i, l := range e.Lines {
		cp := *l
		lines[i] = &cp
	}
	changed = *e
	changed.Lines = lines
	changed.Lines[0].Debit = mustMoney("200")
	if _, err := f.svc.Update(ctx, &changed); !apperror.IsCode(err, apperror.CodeEntryHashProtected) {
		t.Fatalf("expected ENTRY_HASH_PROTECTED for line edit, got %v", err)
	}

	// Ref is not hash-protected.
	changed = *e
	changed.Lines = e.Lines
	changed.Ref = "memo"
	if _, err := f.svc.Update(ctx, &changed); err != nil {
		t.Fatalf("unprotected fields stay writable: %v", err)
	}
}

func TestHashedEntryLifecycleLocked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	f.svc.Create(ctx, e)
	f.svc.Post(ctx, e.ID)
	hash := "$4$deadbeef"
	e.InalterableHash = &hash

	if _, err := f.svc.Cancel(ctx, e.ID); !apperror.IsCode(err, apperror.CodeEntryHashProtected) {
		t.Errorf("Cancel: %v", err)
	}
	if _, err := f.svc.ResetToDraft(ctx, e.ID); !apperror.IsCode(err, apperror.CodeEntryHashProtected) {
		t.Errorf("ResetToDraft: %v", err)
	}
	if err := f.svc.Delete(ctx, e.ID, true); !apperror.IsCode(err, apperror.CodeEntryHashProtected) {
		t.Errorf("Delete: %v", err)
	}
}

func TestJournalChangeNeedsClearedName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	f.svc.Create(ctx, e)
	f.svc.Post(ctx, e.ID)
	f.svc.ResetToDraft(ctx, e.ID)

	moved := *e
	moved.Lines = e.Lines
	moved.JournalID = 3
	if _, err := f.svc.Update(ctx, &moved); err == nil {
		t.Fatal("moving a numbered entry without clearing the name must fail")
	}

	moved.ClearName()
	if _, err := f.svc.Update(ctx, &moved); err != nil {
		t.Fatalf("clearing the name permits the move: %v", err)
	}
}

func TestUpdateDateOutsidePeriodClearsName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	e.Name = "INV/2024/01/0001"
	if _, err := f.svc.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed := *e
	changed.Lines = e.Lines
	changed.Date = day(2024, 2, 10)
	if _, err := f.svc.Update(ctx, &changed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !changed.IsUnassigned() {
		t.Errorf("january name on a february date must reset, got %q", changed.Name)
	}
}

func TestDeleteRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var entries []*JournalEntry
	for i := 0; i < 3; i++ {
		e := balanced(1, day(2024, 1, 5+i), "100")
		f.svc.Create(ctx, e)
		f.svc.Post(ctx, e.ID)
		entries = append(entries, e)
	}

	if err := f.svc.Delete(ctx, entries[1].ID, false); err == nil {
		t.Fatal("posted entries need force")
	}
	if err := f.svc.Delete(ctx, entries[1].ID, true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}

	// The successor inherits the gap flag.
	three, _ := f.repo.GetByID(ctx, entries[2].ID)
	if !three.MadeSequenceGap {
		t.Error("entry 3 must be flagged after 2 is removed")
	}

	// A later entry continues above the gap without being flagged itself.
	e := balanced(1, day(2024, 1, 20), "100")
	f.svc.Create(ctx, e)
	posted, _, err := f.svc.Post(ctx, e.ID)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if posted.SequenceNumber != 4 || posted.MadeSequenceGap {
		t.Errorf("number=%d gap=%v", posted.SequenceNumber, posted.MadeSequenceGap)
	}

	// The chain's last entry deletes without force once back in draft.
	f.svc.ResetToDraft(ctx, posted.ID)
	if err := f.svc.Delete(ctx, posted.ID, false); err != nil {
		t.Fatalf("deleting the chain tail: %v", err)
	}
}

func TestPostExtendsHashChain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	j, _ := f.journals.GetByID(ctx, 1)
	j.RestrictModeHashTable = true

	ext := &fakeExtender{}
	f.svc.extender = ext

	e := balanced(1, day(2024, 1, 5), "100")
	f.svc.Create(ctx, e)
	if _, _, err := f.svc.Post(ctx, e.ID); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if ext.calls != 1 {
		t.Fatalf("extender calls = %d", ext.calls)
	}
	if ext.lastEntry != e.ID {
		t.Errorf("extended for entry %d", ext.lastEntry)
	}

	// journals without restrict mode never reach the extender
	e2 := balanced(1, day(2024, 1, 6), "100")
	e2.JournalID = 3
	f.svc.Create(ctx, e2)
	f.svc.Post(ctx, e2.ID)
	if ext.calls != 1 {
		t.Errorf("extender calls = %d after unrestricted post", ext.calls)
	}
}

type fakeExtender struct {
	calls     int
	lastEntry int64
	fail      error
}

func (x *fakeExtender) ExtendChain(ctx context.Context, e *JournalEntry, force bool) error {
	if x.fail != nil {
		return x.fail
	}
	x.calls++
	x.lastEntry = e.ID
	return nil
}

func TestCancelAndResetToDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	f.svc.Create(ctx, e)
	f.svc.Post(ctx, e.ID)
	name := e.Name

	cancelled, err := f.svc.Cancel(ctx, e.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.State != StateCancel || cancelled.Name != name {
		t.Errorf("state=%s name=%q", cancelled.State, cancelled.Name)
	}

	reset, err := f.svc.ResetToDraft(ctx, e.ID)
	if err != nil {
		t.Fatalf("ResetToDraft: %v", err)
	}
	if reset.State != StateDraft {
		t.Errorf("state = %s", reset.State)
	}
	if reset.Name != name {
		t.Errorf("a posted name is permanent, got %q", reset.Name)
	}

	// Reposting keeps the same number instead of allocating a new one.
	posted, _, err := f.svc.Post(ctx, e.ID)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if posted.Name != name {
		t.Errorf("repost renamed %q to %q", name, posted.Name)
	}
}

func TestRepostLocksChain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	f.svc.Create(ctx, e)
	f.svc.Post(ctx, e.ID)
	f.svc.ResetToDraft(ctx, e.ID)

	f.repo.locks = nil
	if _, _, err := f.svc.Post(ctx, e.ID); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(f.repo.locks) == 0 {
		t.Fatal("reposting a numbered entry must lock its chain")
	}
	q := f.repo.locks[len(f.repo.locks)-1]
	if q.JournalID != e.JournalID || q.Prefix != e.SequencePrefix {
		t.Errorf("locked %+v, want journal %d prefix %q", q, e.JournalID, e.SequencePrefix)
	}
}

func TestPostEmptyEntryRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := NewJournalEntry(1, 1, day(2024, 1, 5))
	if _, err := f.svc.Create(ctx, e); err != nil {
		t.Fatalf("lineless drafts are storable: %v", err)
	}
	if _, _, err := f.svc.Post(ctx, e.ID); err == nil {
		t.Fatal("posting without lines must fail")
	}
}

func TestPostTwiceRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e := balanced(1, day(2024, 1, 5), "100")
	f.svc.Create(ctx, e)
	if _, _, err := f.svc.Post(ctx, e.ID); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, _, err := f.svc.Post(ctx, e.ID); err == nil {
		t.Fatal("double post must fail")
	}
}

