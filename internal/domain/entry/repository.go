package entry

import (
	"context"
	"time"

	"tally/internal/domain"
)

// ChainQuery identifies one sequence chain and period window.
type ChainQuery struct {
	JournalID int64
	Prefix    string

	// DateStart/DateEnd bound the reset period. Zero DateEnd means an
	// unbounded (fixed) chain.
	DateStart time.Time
	DateEnd   time.Time

	// DocTypes selects the chain partition; nil means all document types.
	// Journals that split refund or payment numbering query those types
	// separately.
	DocTypes []DocType
}

// ListFilter narrows entry listings.
type ListFilter struct {
	CompanyID int64
	JournalID int64
	State     State
	DateFrom  time.Time
	DateTo    time.Time
	Limit     int
	Offset    int
}

// Repository defines the interface for JournalEntry persistence. All chain
// queries see committed history plus the current transaction only.
type Repository interface {
	Create(ctx context.Context, e *JournalEntry) error
	GetByID(ctx context.Context, id int64) (*JournalEntry, error)
	Update(ctx context.Context, e *JournalEntry) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*JournalEntry], error)

	// LastNamed retrieves the most recent prior named entry of the journal
	// partition (highest date, then id), used to deduce the chain format.
	LastNamed(ctx context.Context, journalID int64, docTypes []DocType) (*JournalEntry, error)

	// LockChain locks the chain's highest-numbered entry FOR UPDATE and
	// returns it (nil if the chain is empty). Serializes number allocation
	// and hash extension per chain.
	LockChain(ctx context.Context, q ChainQuery) (*JournalEntry, error)

	// ChainNumbers returns the set of assigned sequence numbers in the
	// chain window.
	ChainNumbers(ctx context.Context, q ChainQuery) (map[int64]bool, error)

	// ChainEntries returns the chain's posted, named entries with lines,
	// ascending by sequence number.
	ChainEntries(ctx context.Context, journalID int64, prefix string) ([]*JournalEntry, error)

	// LastHashed returns the highest-numbered hashed entry of the chain,
	// nil if none.
	LastHashed(ctx context.Context, journalID int64, prefix string) (*JournalEntry, error)

	// MarkGap flags the entry holding the given sequence number as the
	// chain's contiguity break.
	MarkGap(ctx context.Context, journalID int64, prefix string, number int64) error

	// SetHash persists the computed hash and secure sequence number.
	SetHash(ctx context.Context, entryID int64, hash string, secureSequenceNumber int64) error

	// Prefixes lists the distinct sequence prefixes of a journal.
	Prefixes(ctx context.Context, journalID int64) ([]string, error)
}
