package entry

import (
	"context"

	"tally/internal/core/apperror"
	appctx "tally/internal/core/context"
	"tally/internal/core/sequence"
	"tally/internal/core/tx"
	"tally/internal/domain"
	"tally/internal/domain/company"
	"tally/internal/domain/currency"
	"tally/internal/domain/journal"
	"tally/pkg/logger"
)

// ChainExtender extends the journal's hash chain after an entry is posted.
// Implemented by the integrity service; optional for deployments without
// hash-restricted journals.
type ChainExtender interface {
	ExtendChain(ctx context.Context, e *JournalEntry, force bool) error
}

// JournalStore, CompanyStore and CurrencyStore are the slices of the
// catalog repositories the entry lifecycle needs.
type JournalStore interface {
	GetByID(ctx context.Context, id int64) (*journal.Journal, error)
}

type CompanyStore interface {
	GetByID(ctx context.Context, id int64) (*company.Company, error)
}

type CurrencyStore interface {
	GetByID(ctx context.Context, id int64) (*currency.Currency, error)
}

// Service provides the JournalEntry lifecycle: create, update, post,
// cancel, reset to draft, delete. Every write runs the validation pipeline
// (auto-balance, balance check, sequence assignment) inside one transaction.
type Service struct {
	repo       Repository
	txManager  tx.Manager
	journals   JournalStore
	companies  CompanyStore
	currencies CurrencyStore
	allocator  *Allocator
	extender   ChainExtender
	hooks      *domain.HookRegistry[*JournalEntry]
	logger     *logger.Logger
}

// ServiceConfig configures the entry service.
type ServiceConfig struct {
	Repo       Repository
	TxManager  tx.Manager
	Journals   JournalStore
	Companies  CompanyStore
	Currencies CurrencyStore
	Extender   ChainExtender
	Logger     *logger.Logger
}

// NewService creates a new entry service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		journals:   cfg.Journals,
		companies:  cfg.Companies,
		currencies: cfg.Currencies,
		allocator:  NewAllocator(cfg.Repo),
		extender:   cfg.Extender,
		hooks:      domain.NewHookRegistry[*JournalEntry](),
		logger:     cfg.Logger,
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*JournalEntry] {
	return s.hooks
}

// GetByID retrieves an entry with its lines.
func (s *Service) GetByID(ctx context.Context, id int64) (*JournalEntry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("journal entry", id)
		}
		return nil, err
	}
	return e, nil
}

// List retrieves entries matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*JournalEntry], error) {
	return s.repo.List(ctx, filter)
}

// surroundings loads the journal and company an entry belongs to and checks
// they agree.
func (s *Service) surroundings(ctx context.Context, e *JournalEntry) (*journal.Journal, *company.Company, error) {
	j, err := s.journals.GetByID(ctx, e.JournalID)
	if err != nil {
		return nil, nil, apperror.NewNotFound("journal", e.JournalID)
	}
	if j.CompanyID != e.CompanyID {
		return nil, nil, apperror.NewValidation("entry company does not match journal company").
			WithDetail("journalId", e.JournalID).
			WithDetail("companyId", e.CompanyID)
	}
	c, err := s.companies.GetByID(ctx, e.CompanyID)
	if err != nil {
		return nil, nil, apperror.NewNotFound("company", e.CompanyID)
	}
	return j, c, nil
}

// placesFor preloads currency precision per company for a batch.
func (s *Service) placesFor(ctx context.Context, entries ...*JournalEntry) (DecimalPlaces, error) {
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

// balancePipeline runs the auto-balance pre-pass and the balance check for
// one entry. Stages already on the guard's stack are skipped.
func (s *Service) balancePipeline(ctx context.Context, g *SyncGuard, e *JournalEntry, c *company.Company) error {
	places, err := s.placesFor(ctx, e)
	if err != nil {
		return err
	}

	if release, ok := g.Enter(StageAutoBalance); ok {
		if c.SuspenseAccountID != nil {
			if AutoBalance(e, *c.SuspenseAccountID, places(e.CompanyID)) {
				logger.Debug(ctx, "entry auto-balanced on suspense account",
					"entry", displayName(e), "account", *c.SuspenseAccountID)
			}
		}
		release()
	}

	release, ok := g.Enter(StageBalance)
	if !ok {
		return nil
	}
	defer release()
	return CheckBalanced([]*JournalEntry{e}, places)
}

// Create validates and persists a new draft entry. A pre-set name is
// decomposed and checked against the chain, returning advisory warnings.
func (s *Service) Create(ctx context.Context, e *JournalEntry) (Warnings, error) {
	e.Normalize()
	if err := e.Validate(ctx); err != nil {
		return nil, err
	}
	j, c, err := s.surroundings(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := c.CheckFiscalLock(e.Date); err != nil {
		return nil, err
	}
	if err := s.hooks.RunBeforeCreate(ctx, e); err != nil {
		return nil, err
	}

	var warnings Warnings
	g := NewSyncGuard()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.balancePipeline(ctx, g, e, c); err != nil {
			return err
		}
		if !e.IsUnassigned() {
			alloc, w, err := s.allocator.CheckManualName(ctx, e, j, c.Fiscal(), appctx.IsQuickEdit(ctx))
			if err != nil {
				return err
			}
			warnings = append(warnings, w...)
			s.apply(e, alloc)
		}
		return s.repo.Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	_ = s.hooks.RunAfterCreate(ctx, e)
	return warnings, nil
}

// Update persists changes to an entry. Hash-protected fields of a hashed
// entry are immutable; changing the journal of a numbered entry requires
// clearing the name in the same call.
func (s *Service) Update(ctx context.Context, e *JournalEntry) (Warnings, error) {
	current, err := s.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	if current.IsHashed() {
		if fields := current.HashProtectedDiff(e); len(fields) > 0 {
			return nil, apperror.NewHashProtected(current.Name, fields)
		}
	}

	if e.JournalID != current.JournalID &&
		(current.PostedBefore || current.SequenceNumber != 0) &&
		!e.IsUnassigned() {
		return nil, apperror.NewValidation("changing the journal of a numbered entry requires clearing its name").
			WithDetail("entry", current.Name)
	}

	e.Normalize()
	if err := e.Validate(ctx); err != nil {
		return nil, err
	}
	j, c, err := s.surroundings(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := c.CheckFiscalLock(current.Date); err != nil {
		return nil, err
	}
	if err := c.CheckFiscalLock(e.Date); err != nil {
		return nil, err
	}

	// A name assigned for another period is dropped when the date moves out
	// of it, as long as the entry was never posted.
	if !current.PostedBefore && !e.IsUnassigned() && !e.Date.Equal(current.Date) {
		if f, ok := sequence.Classify(e.Name); ok && !f.InPeriod(e.Date, c.Fiscal()) {
			e.ClearName()
		}
	}

	if err := s.hooks.RunBeforeUpdate(ctx, e); err != nil {
		return nil, err
	}

	var warnings Warnings
	g := NewSyncGuard()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.balancePipeline(ctx, g, e, c); err != nil {
			return err
		}
		if !e.IsUnassigned() && e.Name != current.Name {
			alloc, w, err := s.allocator.CheckManualName(ctx, e, j, c.Fiscal(), appctx.IsQuickEdit(ctx))
			if err != nil {
				return err
			}
			warnings = append(warnings, w...)
			s.apply(e, alloc)
		}
		e.Touch()
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	_ = s.hooks.Run(ctx, domain.AfterUpdate, e)
	return warnings, nil
}

// Post transitions a draft entry to posted: assigns the next sequence
// number if unassigned, verifies balance, and extends the journal's hash
// chain when hash restriction is on. One atomic transaction.
func (s *Service) Post(ctx context.Context, id int64) (*JournalEntry, Warnings, error) {
	var posted *JournalEntry
	var warnings Warnings

	g := NewSyncGuard()
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch e.State {
		case StatePosted:
			return apperror.NewValidation("entry is already posted").
				WithDetail("entry", e.Name)
		case StateCancel:
			return apperror.NewValidation("cancelled entries must be reset to draft before posting").
				WithDetail("entry", displayName(e))
		}
		if len(e.Lines) == 0 {
			return apperror.NewValidation("an entry needs at least one line to post").
				WithDetail("entry", displayName(e))
		}

		j, c, err := s.surroundings(ctx, e)
		if err != nil {
			return err
		}
		if err := c.CheckFiscalLock(e.Date); err != nil {
			return err
		}

		e.Normalize()
		if err := s.balancePipeline(ctx, g, e, c); err != nil {
			return err
		}

		if err := s.hooks.RunBeforePost(ctx, e); err != nil {
			return err
		}

		if release, ok := g.Enter(StageSequence); ok {
			if e.IsUnassigned() {
				alloc, err := s.allocator.NextSequence(ctx, e, j, c.Fiscal())
				if err != nil {
					release()
					return err
				}
				s.apply(e, alloc)
			} else if e.SequenceNumber == 0 {
				alloc, w, err := s.allocator.CheckManualName(ctx, e, j, c.Fiscal(), appctx.IsQuickEdit(ctx))
				if err != nil {
					release()
					return err
				}
				warnings = append(warnings, w...)
				s.apply(e, alloc)
			} else {
				// Already numbered: still serialize on the chain before the
				// hash chain is extended.
				if err := s.allocator.LockChain(ctx, e, j, c.Fiscal()); err != nil {
					release()
					return err
				}
			}
			release()
		}

		e.State = StatePosted
		e.PostedBefore = true
		e.Touch()
		if err := s.repo.Update(ctx, e); err != nil {
			return err
		}

		if j.RestrictModeHashTable && s.extender != nil {
			release, ok := g.Enter(StageHash)
			if ok {
				err := s.extender.ExtendChain(ctx, e, false)
				release()
				if err != nil {
					return err
				}
			}
		}

		posted = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "entry posted",
		"entry", posted.Name, "journal", posted.JournalID, "seq", posted.SequenceNumber)
	_ = s.hooks.RunAfterPost(ctx, posted)
	return posted, warnings, nil
}

// Cancel moves a posted or draft entry to cancelled. Hashed entries cannot
// be cancelled.
func (s *Service) Cancel(ctx context.Context, id int64) (*JournalEntry, error) {
	var cancelled *JournalEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.IsHashed() {
			return apperror.NewHashProtected(e.Name, []string{"state"})
		}
		if e.State == StateCancel {
			return apperror.NewValidation("entry is already cancelled").
				WithDetail("entry", displayName(e))
		}
		e.State = StateCancel
		e.Touch()
		if err := s.repo.Update(ctx, e); err != nil {
			return err
		}
		cancelled = e
		return nil
	})
	if err == nil {
		_ = s.hooks.Run(ctx, domain.AfterCancel, cancelled)
	}
	return cancelled, err
}

// ResetToDraft returns a posted or cancelled entry to draft. The name stays:
// once posted, the number is permanent. Hashed entries can never go back.
func (s *Service) ResetToDraft(ctx context.Context, id int64) (*JournalEntry, error) {
	var reset *JournalEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.IsHashed() {
			return apperror.NewHashProtected(e.Name, []string{"state"})
		}
		if e.State == StateDraft {
			return apperror.NewValidation("entry is already draft").
				WithDetail("entry", displayName(e))
		}
		e.State = StateDraft
		e.Touch()
		if err := s.repo.Update(ctx, e); err != nil {
			return err
		}
		reset = e
		return nil
	})
	if err == nil {
		_ = s.hooks.Run(ctx, domain.AfterReset, reset)
	}
	return reset, err
}

// Delete removes an entry. Posted or mid-chain entries require force; the
// successor of a force-deleted number is flagged as the chain's gap. Hashed
// entries are never deletable.
func (s *Service) Delete(ctx context.Context, id int64, force bool) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.IsHashed() {
			return apperror.NewHashProtected(e.Name, []string{"entry"})
		}
		if e.State == StatePosted && !force {
			return apperror.NewValidation("posted entries cannot be deleted").
				WithDetail("entry", e.Name)
		}
		if err := s.hooks.RunBeforeDelete(ctx, e); err != nil {
			return err
		}

		if e.SequenceNumber > 0 {
			j, c, err := s.surroundings(ctx, e)
			if err != nil {
				return err
			}
			if err := s.deleteFromChain(ctx, e, j, c, force); err != nil {
				return err
			}
		}

		if err := s.repo.Delete(ctx, e.ID); err != nil {
			return err
		}
		logger.Info(ctx, "entry deleted", "entry", displayName(e), "force", force)
		return nil
	})
}

// deleteFromChain enforces that only the chain's last number leaves without
// a trace. Forced mid-chain deletion marks the successor as gapped.
func (s *Service) deleteFromChain(ctx context.Context, e *JournalEntry, j *journal.Journal, c *company.Company, force bool) error {
	f, ok := sequence.Classify(e.Name)
	if !ok {
		return nil
	}
	start, end := f.PeriodBounds(e.Date, c.Fiscal())
	q := ChainQuery{
		JournalID: j.ID,
		Prefix:    e.SequencePrefix,
		DateStart: start,
		DateEnd:   end,
		DocTypes:  partitionTypes(e, j),
	}

	highest, err := s.repo.LockChain(ctx, q)
	if err != nil {
		return err
	}
	if highest != nil && highest.ID != e.ID {
		if !force {
			return apperror.NewValidation("only the last entry of a sequence chain can be deleted").
				WithDetail("entry", e.Name).
				WithDetail("latest", highest.Name)
		}
		numbers, err := s.repo.ChainNumbers(ctx, q)
		if err != nil {
			return err
		}
		if numbers[e.SequenceNumber+1] {
			if err := s.repo.MarkGap(ctx, j.ID, e.SequencePrefix, e.SequenceNumber+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) apply(e *JournalEntry, alloc Allocation) {
	e.Name = alloc.Name
	e.SequencePrefix = alloc.Prefix
	e.SequenceNumber = alloc.Number
	e.MadeSequenceGap = alloc.MadeGap
}
