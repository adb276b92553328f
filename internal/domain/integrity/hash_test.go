package integrity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core/types"
	"tally/internal/domain/entry"
)

func sampleEntry() *entry.JournalEntry {
	e := entry.NewJournalEntry(1, 7, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	e.ID = 10
	e.Name = "INV/0001"
	e.SequenceNumber = 1
	e.Lines = []*entry.EntryLine{
		{AccountID: 400, Debit: types.MustMoney("100")},
	}
	e.Lines[0].ID = 21
	e.Normalize()
	return e
}

func TestHashEntryDeterministic(t *testing.T) {
	e := sampleEntry()

	h1, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	h2, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "same input must produce bit-identical hashes")
}

func TestHashEntryStoredFormat(t *testing.T) {
	e := sampleEntry()

	v4, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(v4, "$4$"))
	assert.Len(t, v4, len("$4$")+64, "sha256 hex digest after the tag")

	v3, err := HashEntry("", e, 3, 2)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(v3, "$"), "pre-4 hashes are stored bare")
	assert.Len(t, v3, 64)
}

func TestHashEntryVersionFields(t *testing.T) {
	e := sampleEntry()

	v1, err := HashEntry("", e, 1, 2)
	require.NoError(t, err)
	v2, err := HashEntry("", e, 2, 2)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2, "version 1 omits the name field")

	renamed := sampleEntry()
	renamed.Name = "INV/0002"
	r1, err := HashEntry("", renamed, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, v1, r1, "version 1 ignores the name")
	r2, err := HashEntry("", renamed, 2, 2)
	require.NoError(t, err)
	assert.NotEqual(t, v2, r2, "version 2 hashes the name")
}

func TestHashEntryMonetaryRendering(t *testing.T) {
	e := sampleEntry()

	two, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	three, err := HashEntry("", e, 4, 3)
	require.NoError(t, err)
	assert.NotEqual(t, two, three, "decimal places participate from version 3 on")

	v2a, err := HashEntry("", e, 2, 2)
	require.NoError(t, err)
	v2b, err := HashEntry("", e, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, v2a, v2b, "pre-3 versions ignore currency precision")
}

func TestHashEntryPreviousMatters(t *testing.T) {
	e := sampleEntry()

	fresh, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	chained, err := HashEntry("abc123", e, 4, 2)
	require.NoError(t, err)
	assert.NotEqual(t, fresh, chained)
}

func TestHashEntryNonASCIIStable(t *testing.T) {
	e := sampleEntry()
	e.Name = "FACTURE/É/0001"

	h1, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	h2, err := HashEntry("", e, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	ascii := sampleEntry()
	ascii.Name = "FACTURE/E/0001"
	h3, err := HashEntry("", ascii, 4, 2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestParseVersion(t *testing.T) {
	v, digest := ParseVersion("$4$abcdef")
	assert.Equal(t, 4, v)
	assert.Equal(t, "abcdef", digest)

	v, digest = ParseVersion("abcdef")
	assert.Equal(t, 0, v)
	assert.Equal(t, "abcdef", digest)

	v, digest = ParseVersion("$oops")
	assert.Equal(t, 0, v)
	assert.Equal(t, "$oops", digest)
}

func TestStripVersionTag(t *testing.T) {
	assert.Equal(t, "abc", StripVersionTag("$4$abc"))
	assert.Equal(t, "abc", StripVersionTag("abc"))
}

func TestAsciiEscape(t *testing.T) {
	assert.Equal(t, []byte(`plain`), asciiEscape([]byte(`plain`)))
	assert.Equal(t, []byte(`caf\u00e9`), asciiEscape([]byte("café")))
	// Astral characters become UTF-16 surrogate pairs.
	assert.Equal(t, []byte(`\ud83d\ude00`), asciiEscape([]byte("😀")))
}
