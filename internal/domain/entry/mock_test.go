package entry

import (
	"context"
	"sort"
	"time"

	"tally/internal/core/apperror"
	"tally/internal/core/types"
	"tally/internal/domain"
	"tally/internal/domain/company"
	"tally/internal/domain/currency"
	"tally/internal/domain/journal"
)

// nopTx runs the function directly; the tests exercise domain logic only.
type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memRepo is an in-memory Repository.
type memRepo struct {
	nextID  int64
	entries map[int64]*JournalEntry
	locks   []ChainQuery
}

func newMemRepo() *memRepo {
	return &memRepo{entries: make(map[int64]*JournalEntry)}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memRepo) Create(ctx context.Context, e *JournalEntry) error {
	e.ID = r.id()
	for _, l := range e.Lines {
		l.ID = r.id()
		l.EntryID = e.ID
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*JournalEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, apperror.NewNotFound("journal entry", id)
	}
	return e, nil
}

func (r *memRepo) Update(ctx context.Context, e *JournalEntry) error {
	if _, ok := r.entries[e.ID]; !ok {
		return apperror.NewNotFound("journal entry", e.ID)
	}
	for _, l := range e.Lines {
		if l.ID == 0 {
			l.ID = r.id()
			l.EntryID = e.ID
		}
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	delete(r.entries, id)
	return nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*JournalEntry], error) {
	var items []*JournalEntry
	for _, e := range r.entries {
		items = append(items, e)
	}
	return domain.ListResult[*JournalEntry]{Items: items, TotalCount: int64(len(items))}, nil
}

func matchTypes(e *JournalEntry, docTypes []DocType) bool {
	if len(docTypes) == 0 {
		return true
	}
	for _, t := range docTypes {
		if e.DocType == t {
			return true
		}
	}
	return false
}

func inWindow(e *JournalEntry, start, end time.Time) bool {
	if end.IsZero() {
		return true
	}
	return !e.Date.Before(start) && !e.Date.After(end)
}

func (r *memRepo) chain(q ChainQuery) []*JournalEntry {
	var out []*JournalEntry
	for _, e := range r.entries {
		if e.JournalID != q.JournalID || e.SequencePrefix != q.Prefix {
			continue
		}
		if e.SequenceNumber == 0 || !matchTypes(e, q.DocTypes) || !inWindow(e, q.DateStart, q.DateEnd) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *memRepo) LastNamed(ctx context.Context, journalID int64, docTypes []DocType) (*JournalEntry, error) {
	var best *JournalEntry
	for _, e := range r.entries {
		if e.JournalID != journalID || e.IsUnassigned() || !matchTypes(e, docTypes) {
			continue
		}
		if best == nil || e.Date.After(best.Date) || (e.Date.Equal(best.Date) && e.ID > best.ID) {
			best = e
		}
	}
	return best, nil
}

func (r *memRepo) LockChain(ctx context.Context, q ChainQuery) (*JournalEntry, error) {
	r.locks = append(r.locks, q)
	var best *JournalEntry
	for _, e := range r.chain(q) {
		if best == nil || e.SequenceNumber > best.SequenceNumber {
			best = e
		}
	}
	return best, nil
}

func (r *memRepo) ChainNumbers(ctx context.Context, q ChainQuery) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, e := range r.chain(q) {
		out[e.SequenceNumber] = true
	}
	return out, nil
}

func (r *memRepo) ChainEntries(ctx context.Context, journalID int64, prefix string) ([]*JournalEntry, error) {
	var out []*JournalEntry
	for _, e := range r.entries {
		if e.JournalID == journalID && e.SequencePrefix == prefix && e.State == StatePosted && !e.IsUnassigned() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (r *memRepo) LastHashed(ctx context.Context, journalID int64, prefix string) (*JournalEntry, error) {
	all, _ := r.ChainEntries(ctx, journalID, prefix)
	var best *JournalEntry
	for _, e := range all {
		if e.IsHashed() {
			best = e
		}
	}
	return best, nil
}

func (r *memRepo) MarkGap(ctx context.Context, journalID int64, prefix string, number int64) error {
	for _, e := range r.entries {
		if e.JournalID == journalID && e.SequencePrefix == prefix && e.SequenceNumber == number {
			e.MadeSequenceGap = true
		}
	}
	return nil
}

func (r *memRepo) SetHash(ctx context.Context, entryID int64, hash string, secureSequenceNumber int64) error {
	e, ok := r.entries[entryID]
	if !ok {
		return apperror.NewNotFound("journal entry", entryID)
	}
	e.InalterableHash = &hash
	e.SecureSequenceNumber = secureSequenceNumber
	return nil
}

func (r *memRepo) Prefixes(ctx context.Context, journalID int64) ([]string, error) {
	seen := make(map[string]bool)
	for _, e := range r.entries {
		if e.JournalID == journalID && e.SequencePrefix != "" {
			seen[e.SequencePrefix] = true
		}
	}
	var out []string
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// fixed catalog stores

type memJournals map[int64]*journal.Journal

func (m memJournals) GetByID(ctx context.Context, id int64) (*journal.Journal, error) {
	j, ok := m[id]
	if !ok {
		return nil, apperror.NewNotFound("journal", id)
	}
	return j, nil
}

type memCompanies map[int64]*company.Company

func (m memCompanies) GetByID(ctx context.Context, id int64) (*company.Company, error) {
	c, ok := m[id]
	if !ok {
		return nil, apperror.NewNotFound("company", id)
	}
	return c, nil
}

type memCurrencies map[int64]*currency.Currency

func (m memCurrencies) GetByID(ctx context.Context, id int64) (*currency.Currency, error) {
	c, ok := m[id]
	if !ok {
		return nil, apperror.NewNotFound("currency", id)
	}
	return c, nil
}

// fixture is a ready-to-use service over in-memory stores: company 1 in EUR
// (2 decimal places), journal 1 = sales "INV", journal 2 = bank "BNK1" with
// split payment numbering, journal 3 = sales "RSL" with split refunds.
type fixture struct {
	svc       *Service
	repo      *memRepo
	journals  memJournals
	companies memCompanies
}

func newFixture() *fixture {
	eur := currency.NewCurrency("EUR", "Euro")
	eur.ID = 1

	co := company.NewCompany("MAIN", "Main Co", 1)
	co.ID = 1

	sale := journal.NewJournal("INV", "Sales", 1, journal.TypeSale)
	sale.ID = 1
	bank := journal.NewJournal("BNK1", "Bank", 1, journal.TypeBank)
	bank.ID = 2
	bank.PaymentSequence = true
	refundSale := journal.NewJournal("RSL", "Sales with refunds", 1, journal.TypeSale)
	refundSale.ID = 3
	refundSale.RefundSequence = true

	repo := newMemRepo()
	journals := memJournals{1: sale, 2: bank, 3: refundSale}
	companies := memCompanies{1: co}

	svc := NewService(ServiceConfig{
		Repo:       repo,
		TxManager:  nopTx{},
		Journals:   journals,
		Companies:  companies,
		Currencies: memCurrencies{1: eur},
	})
	return &fixture{svc: svc, repo: repo, journals: journals, companies: companies}
}

func mustMoney(s string) types.Money { return types.MustMoney(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// balanced returns a draft entry with one debit and one credit line.
func balanced(journalID int64, date time.Time, amount string) *JournalEntry {
	e := NewJournalEntry(1, journalID, date)
	e.Lines = []*EntryLine{
		{AccountID: 400, Debit: mustMoney(amount)},
		{AccountID: 700, Credit: mustMoney(amount)},
	}
	return e
}
