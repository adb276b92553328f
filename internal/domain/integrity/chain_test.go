package integrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core/types"
	"tally/internal/domain/entry"
)

func posted(id, seq int64, amount string) *entry.JournalEntry {
	e := entry.NewJournalEntry(1, 7, time.Date(2024, 1, int(seq), 0, 0, 0, 0, time.UTC))
	e.ID = id
	e.State = entry.StatePosted
	e.Name = "INV/2024/0000" + string(rune('0'+seq))
	e.SequencePrefix = "INV/2024/"
	e.SequenceNumber = seq
	e.Lines = []*entry.EntryLine{
		{AccountID: 400, Debit: types.MustMoney(amount)},
		{AccountID: 700, Credit: types.MustMoney(amount)},
	}
	e.Lines[0].ID = id*10 + 1
	e.Lines[1].ID = id*10 + 2
	e.Normalize()
	return e
}

func two(companyID int64) int { return 2 }

func TestCalculateHashesChains(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")

	hashes, err := CalculateHashes([]*entry.JournalEntry{a, b}, "", 4, two)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	assert.NotEqual(t, hashes[a.ID], hashes[b.ID])

	// The second link is computed from the first's bare digest, not the
	// stored "$4$..." form.
	solo, err := HashEntry(StripVersionTag(hashes[a.ID]), b, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, hashes[b.ID], solo)

	tagged, err := HashEntry(hashes[a.ID], b, 4, 2)
	require.NoError(t, err)
	assert.NotEqual(t, hashes[b.ID], tagged, "the version tag is metadata, not chain material")
}

func TestCalculateHashesDeterministic(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")

	first, err := CalculateHashes([]*entry.JournalEntry{a, b}, "", 4, two)
	require.NoError(t, err)
	second, err := CalculateHashes([]*entry.JournalEntry{a, b}, "", 4, two)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateHashesAvalanche(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")
	c := posted(3, 3, "25")
	chain := []*entry.JournalEntry{a, b, c}

	before, err := CalculateHashes(chain, "", 4, two)
	require.NoError(t, err)

	a.Lines[0].Debit = types.MustMoney("100.01")
	after, err := CalculateHashes(chain, "", 4, two)
	require.NoError(t, err)

	assert.NotEqual(t, before[a.ID], after[a.ID])
	assert.NotEqual(t, before[b.ID], after[b.ID], "edits cascade to every later link")
	assert.NotEqual(t, before[c.ID], after[c.ID])
}

func TestCalculateHashesRejectsOutOfOrder(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")

	_, err := CalculateHashes([]*entry.JournalEntry{b, a}, "", 4, two)
	require.Error(t, err, "descending input must be rejected, never reordered")

	_, err = CalculateHashes([]*entry.JournalEntry{a, a}, "", 4, two)
	require.Error(t, err, "duplicate numbers must be rejected")
}

func TestBuildChainInfoPartitions(t *testing.T) {
	hashed := posted(1, 1, "10")
	h := "$4$feed"
	hashed.InalterableHash = &h
	hashed.SecureSequenceNumber = 1
	next := posted(2, 2, "20")
	later := posted(3, 3, "30")

	info := buildChainInfo(7, "INV/2024/", []*entry.JournalEntry{hashed, next, later}, hashed, 2)
	assert.Equal(t, "$4$feed", info.PreviousHash)
	assert.Equal(t, int64(1), info.LastHashedNumber)
	require.Len(t, info.MovesToHash, 1)
	assert.Equal(t, next.ID, info.MovesToHash[0].ID)
	require.Len(t, info.Remaining, 1)
	assert.Equal(t, later.ID, info.Remaining[0].ID)
	assert.Empty(t, info.Warnings)
}

func TestBuildChainInfoGap(t *testing.T) {
	one := posted(1, 1, "10")
	three := posted(3, 3, "30")

	info := buildChainInfo(7, "INV/2024/", []*entry.JournalEntry{one, three}, nil, 3)
	assert.True(t, info.Warnings[WarnGap], "numbers {1,3} leave a hole")
}

func TestBuildChainInfoNoDocument(t *testing.T) {
	info := buildChainInfo(7, "INV/2024/", nil, nil, 5)
	assert.True(t, info.Warnings[WarnNoDocument])
}

func TestBuildChainInfoUnreconciled(t *testing.T) {
	e := posted(1, 1, "10")
	stmt := int64(55)
	e.Lines[0].StatementLineID = &stmt

	info := buildChainInfo(7, "INV/2024/", []*entry.JournalEntry{e}, nil, 1)
	assert.True(t, info.Warnings[WarnUnreconciled])

	e.Lines[0].Reconciled = true
	info = buildChainInfo(7, "INV/2024/", []*entry.JournalEntry{e}, nil, 1)
	assert.False(t, info.Warnings[WarnUnreconciled])
}

func TestBuildChainInfoSkipsDraftsAndHashed(t *testing.T) {
	draft := posted(1, 1, "10")
	draft.State = entry.StateDraft
	done := posted(2, 2, "20")
	h := "$4$feed"
	done.InalterableHash = &h

	info := buildChainInfo(7, "INV/2024/", []*entry.JournalEntry{draft, done}, nil, 2)
	assert.Empty(t, info.MovesToHash)
	assert.True(t, info.Warnings[WarnNoDocument])
}
