package integrity

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core/apperror"
	"tally/internal/core/tx"
	"tally/internal/domain/entry"
	"tally/internal/domain/journal"
	"tally/pkg/logger"
)

// JournalStore is the slice of the journal repository this service needs.
type JournalStore interface {
	GetByID(ctx context.Context, id int64) (*journal.Journal, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*journal.Journal, error)
}

// Service extends and verifies hash chains. It implements
// entry.ChainExtender and is wired into the posting transaction.
type Service struct {
	entries    entry.Repository
	journals   JournalStore
	companies  entry.CompanyStore
	currencies entry.CurrencyStore
	txManager  tx.Manager
}

// ServiceConfig configures the integrity service.
type ServiceConfig struct {
	Entries    entry.Repository
	Journals   JournalStore
	Companies  entry.CompanyStore
	Currencies entry.CurrencyStore
	TxManager  tx.Manager
}

// NewService creates a new integrity service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		entries:    cfg.Entries,
		journals:   cfg.Journals,
		companies:  cfg.Companies,
		currencies: cfg.Currencies,
		txManager:  cfg.TxManager,
	}
}

func (s *Service) placesFor(ctx context.Context, entries []*entry.JournalEntry) (entry.DecimalPlaces, error) {
	cache := make(map[int64]int)
	for _, e := range entries {
		if _, ok := cache[e.CompanyID]; ok {
			continue
		}
		c, err := s.companies.GetByID(ctx, e.CompanyID)
		if err != nil {
			return nil, err
		}
		cur, err := s.currencies.GetByID(ctx, c.CurrencyID)
		if err != nil {
			return nil, err
		}
		cache[e.CompanyID] = cur.DecimalPlaces
	}
	return func(companyID int64) int {
		if d, ok := cache[companyID]; ok {
			return d
		}
		return 2
	}, nil
}

// ChainInfo gathers hashing state for one chain up to the given sequence
// number. Returns nil when the journal is not hash-restricted (unless
// forced). Must run inside the posting transaction, after the chain lock.
func (s *Service) ChainInfo(ctx context.Context, journalID int64, prefix string, upTo int64, force bool) (*ChainInfo, error) {
	j, err := s.journals.GetByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if !j.RestrictModeHashTable && !force {
		return nil, nil
	}

	lastHashed, err := s.entries.LastHashed(ctx, journalID, prefix)
	if err != nil {
		return nil, err
	}
	all, err := s.entries.ChainEntries(ctx, journalID, prefix)
	if err != nil {
		return nil, err
	}
	return buildChainInfo(journalID, prefix, all, lastHashed, upTo), nil
}

// ExtendChain hashes the chain's posted, unhashed entries up to and
// including the given entry. Gap and no-document conditions abort unless
// force (one-time administrative repair); unreconciled always aborts.
func (s *Service) ExtendChain(ctx context.Context, e *entry.JournalEntry, force bool) error {
	info, err := s.ChainInfo(ctx, e.JournalID, e.SequencePrefix, e.SequenceNumber, force)
	if err != nil || info == nil {
		return err
	}

	if info.Warnings[WarnUnreconciled] {
		var names []string
		for _, m := range info.MovesToHash {
			if unreconciled(m) {
				names = append(names, m.Name)
			}
		}
		return apperror.NewUnreconciledCashBasis(names)
	}
	if !force {
		if info.Warnings[WarnGap] {
			return apperror.NewSequenceGap(info.Prefix,
				fmt.Sprintf("numbers after %d are not contiguous", info.LastHashedNumber))
		}
		if info.Warnings[WarnNoDocument] {
			return apperror.NewSequenceGap(info.Prefix,
				fmt.Sprintf("no unhashed document up to number %d", e.SequenceNumber))
		}
	}
	if len(info.MovesToHash) == 0 {
		return nil
	}

	places, err := s.placesFor(ctx, info.MovesToHash)
	if err != nil {
		return err
	}
	hashes, err := CalculateHashes(info.MovesToHash, info.PreviousHash, CurrentHashVersion, places)
	if err != nil {
		return err
	}

	secure := info.LastSecureNumber
	for _, m := range info.MovesToHash {
		secure++
		stored := hashes[m.ID]
		if err := s.entries.SetHash(ctx, m.ID, stored, secure); err != nil {
			return err
		}
		m.InalterableHash = &stored
		m.SecureSequenceNumber = secure
	}

	logger.Info(ctx, "hash chain extended",
		"journal", info.JournalID, "prefix", info.Prefix,
		"entries", len(info.MovesToHash), "secure", secure)
	return nil
}

// VerifyJournal recomputes every chain of one journal from its start and
// reports each chain's integrity.
func (s *Service) VerifyJournal(ctx context.Context, journalID int64) ([]ChainReport, error) {
	j, err := s.journals.GetByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	prefixes, err := s.entries.Prefixes(ctx, journalID)
	if err != nil {
		return nil, err
	}

	var reports []ChainReport
	for _, prefix := range prefixes {
		r, err := s.verifyChain(ctx, j, prefix)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if len(reports) == 0 {
		status := StatusNoData
		if !j.RestrictModeHashTable {
			status = StatusNotConfigured
		}
		reports = append(reports, ChainReport{
			JournalID:   j.ID,
			JournalCode: j.Code,
			Status:      status,
		})
	}
	return reports, nil
}

func (s *Service) verifyChain(ctx context.Context, j *journal.Journal, prefix string) (ChainReport, error) {
	report := ChainReport{
		JournalID:   j.ID,
		JournalCode: j.Code,
		Prefix:      prefix,
	}

	all, err := s.entries.ChainEntries(ctx, j.ID, prefix)
	if err != nil {
		return report, err
	}
	var hashed []*entry.JournalEntry
	for _, e := range all {
		if e.IsHashed() {
			hashed = append(hashed, e)
		}
	}
	if len(hashed) == 0 {
		report.Status = StatusNoData
		if !j.RestrictModeHashTable {
			report.Status = StatusNotConfigured
		}
		return report, nil
	}

	places, err := s.placesFor(ctx, hashed)
	if err != nil {
		return report, err
	}

	prev := ""
	for _, e := range hashed {
		stored := *e.InalterableHash
		if !s.verifyLink(prev, e, stored, places) {
			report.Status = StatusCorrupted
			report.Message = fmt.Sprintf("corrupted data on entry %q, expected a different hash", e.Name)
			return report, nil
		}
		prev = StripVersionTag(stored)
	}

	first, last := hashed[0], hashed[len(hashed)-1]
	report.Status = StatusOK
	report.HashedCount = int64(len(hashed))
	report.FirstName = first.Name
	report.LastName = last.Name
	fd, ld := first.Date, last.Date
	report.FirstDate, report.LastDate = &fd, &ld
	return report, nil
}

// verifyLink recomputes one link with the stored hash's version. Bare
// legacy hashes carry no version marker, so versions 1-3 are tried in turn.
func (s *Service) verifyLink(prev string, e *entry.JournalEntry, stored string, places entry.DecimalPlaces) bool {
	version, _ := ParseVersion(stored)
	if version != 0 {
		computed, err := HashEntry(prev, e, version, places(e.CompanyID))
		return err == nil && computed == stored
	}
	for v := 1; v <= 3; v++ {
		computed, err := HashEntry(prev, e, v, places(e.CompanyID))
		if err == nil && computed == stored {
			return true
		}
	}
	return false
}

// VerifyCompany runs verification over every journal of a company. The
// whole run happens in one transaction so all chains are read from the same
// snapshot.
func (s *Service) VerifyCompany(ctx context.Context, companyID int64) (*Report, error) {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		CompanyID:   companyID,
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		journals, err := s.journals.ListByCompany(ctx, companyID)
		if err != nil {
			return err
		}
		for _, j := range journals {
			chains, err := s.VerifyJournal(ctx, j.ID)
			if err != nil {
				return err
			}
			report.Chains = append(report.Chains, chains...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
