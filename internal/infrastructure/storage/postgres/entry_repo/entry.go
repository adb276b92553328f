// Package entry_repo provides the PostgreSQL implementation of the journal
// entry repository, including the chain queries that back sequence
// allocation and hash extension.
package entry_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tally/internal/core/apperror"
	"tally/internal/domain"
	"tally/internal/domain/entry"
	"tally/internal/infrastructure/storage/postgres"
)

const (
	entriesTable = "doc_entries"
	linesTable   = "doc_entry_lines"
)

// EntryRepo implements entry.Repository.
type EntryRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
	lineCols   []string
}

// NewEntryRepo creates a new journal entry repository.
func NewEntryRepo(txManager *postgres.TxManager) *EntryRepo {
	return &EntryRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[entry.JournalEntry](),
		lineCols:   postgres.ExtractDBColumns[entry.EntryLine](),
	}
}

var _ entry.Repository = (*EntryRepo)(nil)

func (r *EntryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *EntryRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *EntryRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(entriesTable)
}

// Create inserts the entry header and its lines, backfilling generated ids.
func (r *EntryRepo) Create(ctx context.Context, e *entry.JournalEntry) error {
	data := postgres.StructToMap(e)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" {
			continue // bigserial
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(entriesTable).
		SetMap(filteredData).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	var newID int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newID); err != nil {
		return fmt.Errorf("insert %s: %w", entriesTable, err)
	}
	e.ID = newID

	for _, l := range e.Lines {
		l.EntryID = newID
		if err := r.insertLine(ctx, l); err != nil {
			return err
		}
	}

	return nil
}

func (r *EntryRepo) insertLine(ctx context.Context, l *entry.EntryLine) error {
	data := postgres.StructToMap(l)

	filteredData := make(map[string]any, len(r.lineCols))
	for _, col := range r.lineCols {
		if col == "id" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(linesTable).
		SetMap(filteredData).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}

	var newID int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newID); err != nil {
		return fmt.Errorf("insert %s: %w", linesTable, err)
	}
	l.ID = newID

	return nil
}

func (r *EntryRepo) updateLine(ctx context.Context, l *entry.EntryLine) error {
	data := postgres.StructToMap(l)

	filteredData := make(map[string]any, len(r.lineCols))
	for _, col := range r.lineCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(linesTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": l.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line update: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update %s: %w", linesTable, err)
	}

	return nil
}

// Update modifies the header with optimistic locking and reconciles the
// line set: removed lines are deleted, new lines inserted, kept lines
// updated in place so their ids stay stable for hash canonicalization.
func (r *EntryRepo) Update(ctx context.Context, e *entry.JournalEntry) error {
	data := postgres.StructToMap(e)

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entry has no 'version' field or it is not an int")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		if col == "version" || col == "updated_at" {
			continue // managed by repo
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(entriesTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": e.ID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", entriesTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(entriesTable, e.ID)
	}

	keep := make([]int64, 0, len(e.Lines))
	for _, l := range e.Lines {
		if l.ID != 0 {
			keep = append(keep, l.ID)
		}
	}

	del := r.builder().
		Delete(linesTable).
		Where(squirrel.Eq{"entry_id": e.ID})
	if len(keep) > 0 {
		del = del.Where(squirrel.NotEq{"id": keep})
	}
	delSQL, delArgs, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build line delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete removed lines: %w", err)
	}

	for _, l := range e.Lines {
		l.EntryID = e.ID
		if l.ID == 0 {
			if err := r.insertLine(ctx, l); err != nil {
				return err
			}
			continue
		}
		if err := r.updateLine(ctx, l); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes the entry and its lines. The domain layer gates this on
// hash protection and posting state.
func (r *EntryRepo) Delete(ctx context.Context, id int64) error {
	delLines := r.builder().
		Delete(linesTable).
		Where(squirrel.Eq{"entry_id": id})

	sql, args, err := delLines.ToSql()
	if err != nil {
		return fmt.Errorf("build line delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	del := r.builder().
		Delete(entriesTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err = del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entriesTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(entriesTable, id)
	}

	return nil
}

// GetByID retrieves the entry with its lines.
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (*entry.JournalEntry, error) {
	e := &entry.JournalEntry{}

	q := r.baseSelect().Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("journal entry", id)
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	if err := r.loadLines(ctx, []*entry.JournalEntry{e}); err != nil {
		return nil, err
	}

	return e, nil
}

// List retrieves entries with filtering; lines are not loaded.
func (r *EntryRepo) List(ctx context.Context, filter entry.ListFilter) (domain.ListResult[*entry.JournalEntry], error) {
	result := domain.ListResult[*entry.JournalEntry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.CompanyID != 0 {
		q = q.Where(squirrel.Eq{"company_id": filter.CompanyID})
	}
	if filter.JournalID != 0 {
		q = q.Where(squirrel.Eq{"journal_id": filter.JournalID})
	}
	if filter.State != "" {
		q = q.Where(squirrel.Eq{"state": filter.State})
	}
	if !filter.DateFrom.IsZero() {
		q = q.Where(squirrel.GtOrEq{"date": filter.DateFrom})
	}
	if !filter.DateTo.IsZero() {
		q = q.Where(squirrel.LtOrEq{"date": filter.DateTo})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	return result, nil
}

// LastNamed retrieves the most recent prior named entry of the journal
// partition (highest date, then id).
func (r *EntryRepo) LastNamed(ctx context.Context, journalID int64, docTypes []entry.DocType) (*entry.JournalEntry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.Gt{"sequence_number": 0})
	if len(docTypes) > 0 {
		q = q.Where(squirrel.Eq{"doc_type": docTypes})
	}
	q = q.OrderBy("date DESC", "id DESC").Limit(1)

	return r.getOne(ctx, q)
}

// LockChain locks the chain's highest-numbered entry FOR UPDATE. The row
// lock serializes concurrent allocations against the same chain.
func (r *EntryRepo) LockChain(ctx context.Context, cq entry.ChainQuery) (*entry.JournalEntry, error) {
	q := r.chainSelect(cq).
		OrderBy("sequence_number DESC").
		Limit(1).
		Suffix("FOR UPDATE")

	return r.getOne(ctx, q)
}

// ChainNumbers returns the set of assigned sequence numbers in the chain
// window.
func (r *EntryRepo) ChainNumbers(ctx context.Context, cq entry.ChainQuery) (map[int64]bool, error) {
	q := r.builder().
		Select("sequence_number").
		From(entriesTable)
	q = applyChainFilter(q, cq)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("chain numbers: %w", err)
	}
	defer rows.Close()

	numbers := make(map[int64]bool)
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan number: %w", err)
		}
		numbers[n] = true
	}

	return numbers, rows.Err()
}

// ChainEntries returns the chain's posted, named entries with lines,
// ascending by sequence number.
func (r *EntryRepo) ChainEntries(ctx context.Context, journalID int64, prefix string) ([]*entry.JournalEntry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.Eq{"sequence_prefix": prefix}).
		Where(squirrel.Eq{"state": entry.StatePosted}).
		Where(squirrel.Gt{"sequence_number": 0}).
		OrderBy("sequence_number ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*entry.JournalEntry
	if err := pgxscan.Select(ctx, r.querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("chain entries: %w", err)
	}

	if err := r.loadLines(ctx, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// LastHashed returns the highest-numbered hashed entry of the chain.
func (r *EntryRepo) LastHashed(ctx context.Context, journalID int64, prefix string) (*entry.JournalEntry, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.Eq{"sequence_prefix": prefix}).
		Where(squirrel.NotEq{"inalterable_hash": nil}).
		OrderBy("sequence_number DESC").
		Limit(1)

	e, err := r.getOne(ctx, q)
	if err != nil || e == nil {
		return nil, err
	}
	if err := r.loadLines(ctx, []*entry.JournalEntry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// MarkGap flags the entry holding the given sequence number as the chain's
// contiguity break.
func (r *EntryRepo) MarkGap(ctx context.Context, journalID int64, prefix string, number int64) error {
	q := r.builder().
		Update(entriesTable).
		Set("made_sequence_gap", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.Eq{"sequence_prefix": prefix}).
		Where(squirrel.Eq{"sequence_number": number})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build mark gap: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark gap: %w", err)
	}

	return nil
}

// SetHash persists the computed hash and secure sequence number.
func (r *EntryRepo) SetHash(ctx context.Context, entryID int64, hash string, secureSequenceNumber int64) error {
	q := r.builder().
		Update(entriesTable).
		Set("inalterable_hash", hash).
		Set("secure_sequence_number", secureSequenceNumber).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entryID}).
		Where(squirrel.Eq{"inalterable_hash": nil}) // a hash is written once

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set hash: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("entry is already hashed").
			WithDetail("entry_id", entryID)
	}

	return nil
}

// Prefixes lists the distinct sequence prefixes of a journal.
func (r *EntryRepo) Prefixes(ctx context.Context, journalID int64) ([]string, error) {
	q := r.builder().
		Select("DISTINCT sequence_prefix").
		From(entriesTable).
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.NotEq{"sequence_prefix": ""}).
		OrderBy("sequence_prefix ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("prefixes: %w", err)
	}
	defer rows.Close()

	var prefixes []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan prefix: %w", err)
		}
		prefixes = append(prefixes, p)
	}

	return prefixes, rows.Err()
}

func (r *EntryRepo) chainSelect(cq entry.ChainQuery) squirrel.SelectBuilder {
	q := r.baseSelect()
	return applyChainFilter(q, cq)
}

func applyChainFilter(q squirrel.SelectBuilder, cq entry.ChainQuery) squirrel.SelectBuilder {
	q = q.
		Where(squirrel.Eq{"journal_id": cq.JournalID}).
		Where(squirrel.Eq{"sequence_prefix": cq.Prefix}).
		Where(squirrel.Gt{"sequence_number": 0})

	if !cq.DateStart.IsZero() {
		q = q.Where(squirrel.GtOrEq{"date": cq.DateStart})
	}
	if !cq.DateEnd.IsZero() {
		q = q.Where(squirrel.LtOrEq{"date": cq.DateEnd})
	}
	if len(cq.DocTypes) > 0 {
		q = q.Where(squirrel.Eq{"doc_type": cq.DocTypes})
	}

	return q
}

func (r *EntryRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*entry.JournalEntry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	e := &entry.JournalEntry{}
	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	return e, nil
}

// loadLines fetches lines for a batch of entries in one query.
func (r *EntryRepo) loadLines(ctx context.Context, entries []*entry.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	byID := make(map[int64]*entry.JournalEntry, len(entries))
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		e.Lines = nil
		ids = append(ids, e.ID)
	}

	q := r.builder().
		Select(r.lineCols...).
		From(linesTable).
		Where(squirrel.Eq{"entry_id": ids}).
		OrderBy("entry_id ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line query: %w", err)
	}

	var lines []*entry.EntryLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return fmt.Errorf("load lines: %w", err)
	}

	for _, l := range lines {
		if e, ok := byID[l.EntryID]; ok {
			e.Lines = append(e.Lines, l)
		}
	}

	return nil
}
