package integrity

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core/apperror"
	"tally/internal/core/types"
	"tally/internal/domain"
	"tally/internal/domain/company"
	"tally/internal/domain/currency"
	"tally/internal/domain/entry"
	"tally/internal/domain/journal"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// chainStore is a minimal entry.Repository over a fixed entry list; only
// the chain queries the integrity service issues are meaningful.
type chainStore struct {
	entries []*entry.JournalEntry
}

func (s *chainStore) Create(ctx context.Context, e *entry.JournalEntry) error { return nil }
func (s *chainStore) Update(ctx context.Context, e *entry.JournalEntry) error { return nil }
func (s *chainStore) Delete(ctx context.Context, id int64) error              { return nil }

func (s *chainStore) GetByID(ctx context.Context, id int64) (*entry.JournalEntry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound("journal entry", id)
}

func (s *chainStore) List(ctx context.Context, filter entry.ListFilter) (domain.ListResult[*entry.JournalEntry], error) {
	return domain.ListResult[*entry.JournalEntry]{}, nil
}

func (s *chainStore) LastNamed(ctx context.Context, journalID int64, docTypes []entry.DocType) (*entry.JournalEntry, error) {
	return nil, nil
}

func (s *chainStore) LockChain(ctx context.Context, q entry.ChainQuery) (*entry.JournalEntry, error) {
	return nil, nil
}

func (s *chainStore) ChainNumbers(ctx context.Context, q entry.ChainQuery) (map[int64]bool, error) {
	return nil, nil
}

func (s *chainStore) ChainEntries(ctx context.Context, journalID int64, prefix string) ([]*entry.JournalEntry, error) {
	var out []*entry.JournalEntry
	for _, e := range s.entries {
		if e.JournalID == journalID && e.SequencePrefix == prefix && e.State == entry.StatePosted {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (s *chainStore) LastHashed(ctx context.Context, journalID int64, prefix string) (*entry.JournalEntry, error) {
	all, _ := s.ChainEntries(ctx, journalID, prefix)
	var best *entry.JournalEntry
	for _, e := range all {
		if e.IsHashed() {
			best = e
		}
	}
	return best, nil
}

func (s *chainStore) MarkGap(ctx context.Context, journalID int64, prefix string, number int64) error {
	return nil
}

func (s *chainStore) SetHash(ctx context.Context, entryID int64, hash string, secure int64) error {
	e, err := s.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	e.InalterableHash = &hash
	e.SecureSequenceNumber = secure
	return nil
}

func (s *chainStore) Prefixes(ctx context.Context, journalID int64) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range s.entries {
		if e.JournalID == journalID && e.SequencePrefix != "" && !seen[e.SequencePrefix] {
			seen[e.SequencePrefix] = true
			out = append(out, e.SequencePrefix)
		}
	}
	sort.Strings(out)
	return out, nil
}

type oneJournal struct{ j *journal.Journal }

func (s oneJournal) GetByID(ctx context.Context, id int64) (*journal.Journal, error) {
	if s.j.ID != id {
		return nil, apperror.NewNotFound("journal", id)
	}
	return s.j, nil
}

func (s oneJournal) ListByCompany(ctx context.Context, companyID int64) ([]*journal.Journal, error) {
	return []*journal.Journal{s.j}, nil
}

type oneCompany struct{ c *company.Company }

func (s oneCompany) GetByID(ctx context.Context, id int64) (*company.Company, error) {
	return s.c, nil
}

type oneCurrency struct{ c *currency.Currency }

func (s oneCurrency) GetByID(ctx context.Context, id int64) (*currency.Currency, error) {
	return s.c, nil
}

func newTestService(entries ...*entry.JournalEntry) (*Service, *chainStore, *journal.Journal) {
	j := journal.NewJournal("INV", "Sales", 1, journal.TypeSale)
	j.ID = 7
	j.RestrictModeHashTable = true

	eur := currency.NewCurrency("EUR", "Euro")
	eur.ID = 1
	co := company.NewCompany("MAIN", "Main Co", 1)
	co.ID = 1

	store := &chainStore{entries: entries}
	svc := NewService(ServiceConfig{
		Entries:    store,
		Journals:   oneJournal{j},
		Companies:  oneCompany{co},
		Currencies: oneCurrency{eur},
		TxManager:  nopTx{},
	})
	return svc, store, j
}

func TestExtendChainHashesInOrder(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")
	svc, _, _ := newTestService(a, b)

	require.NoError(t, svc.ExtendChain(context.Background(), b, false))

	require.True(t, a.IsHashed())
	require.True(t, b.IsHashed())
	assert.Equal(t, int64(1), a.SecureSequenceNumber)
	assert.Equal(t, int64(2), b.SecureSequenceNumber)
	assert.Contains(t, *a.InalterableHash, "$4$")

	expected, err := HashEntry(StripVersionTag(*a.InalterableHash), b, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, expected, *b.InalterableHash)
}

func TestExtendChainSkipsUnrestrictedJournal(t *testing.T) {
	a := posted(1, 1, "100")
	svc, _, j := newTestService(a)
	j.RestrictModeHashTable = false

	require.NoError(t, svc.ExtendChain(context.Background(), a, false))
	assert.False(t, a.IsHashed(), "nothing is hashed without restrict mode")

	require.NoError(t, svc.ExtendChain(context.Background(), a, true))
	assert.True(t, a.IsHashed(), "force overrides the journal configuration")
}

func TestExtendChainGapIsFatal(t *testing.T) {
	one := posted(1, 1, "100")
	three := posted(3, 3, "50")
	svc, _, _ := newTestService(one, three)

	err := svc.ExtendChain(context.Background(), three, false)
	require.True(t, apperror.IsCode(err, apperror.CodeSequenceGap), "got %v", err)

	// Recovery mode accepts the gap once.
	require.NoError(t, svc.ExtendChain(context.Background(), three, true))
	assert.True(t, one.IsHashed())
	assert.True(t, three.IsHashed())
}

func TestExtendChainUnreconciledAlwaysFatal(t *testing.T) {
	e := posted(1, 1, "100")
	stmt := int64(12)
	e.Lines[0].StatementLineID = &stmt
	svc, _, _ := newTestService(e)

	err := svc.ExtendChain(context.Background(), e, false)
	require.True(t, apperror.IsCode(err, apperror.CodeUnreconciledCashBasis), "got %v", err)

	err = svc.ExtendChain(context.Background(), e, true)
	require.True(t, apperror.IsCode(err, apperror.CodeUnreconciledCashBasis),
		"force never overrides cash-basis safety, got %v", err)
}

func TestVerifyJournal(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")
	svc, _, _ := newTestService(a, b)
	ctx := context.Background()

	require.NoError(t, svc.ExtendChain(ctx, b, false))

	reports, err := svc.VerifyJournal(ctx, 7)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, StatusOK, reports[0].Status)
	assert.Equal(t, int64(2), reports[0].HashedCount)
	assert.Equal(t, a.Name, reports[0].FirstName)
	assert.Equal(t, b.Name, reports[0].LastName)
}

func TestVerifyJournalDetectsTampering(t *testing.T) {
	a := posted(1, 1, "100")
	b := posted(2, 2, "50")
	svc, _, _ := newTestService(a, b)
	ctx := context.Background()

	require.NoError(t, svc.ExtendChain(ctx, b, false))

	a.Lines[0].Debit = types.MustMoney("100.01")
	a.Normalize()

	reports, err := svc.VerifyJournal(ctx, 7)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, StatusCorrupted, reports[0].Status)
	assert.Contains(t, reports[0].Message, a.Name)
}

func TestVerifyCompanyCleanReport(t *testing.T) {
	a := posted(1, 1, "100")
	svc, _, _ := newTestService(a)
	ctx := context.Background()
	require.NoError(t, svc.ExtendChain(ctx, a, false))

	report, err := svc.VerifyCompany(ctx, 1)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	require.Len(t, report.Chains, 1)
}
