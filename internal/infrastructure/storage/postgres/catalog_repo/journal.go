package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"tally/internal/domain/journal"
	"tally/internal/infrastructure/storage/postgres"
)

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	*BaseCatalogRepo[*journal.Journal]
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txManager *postgres.TxManager) *JournalRepo {
	return &JournalRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_journals",
			postgres.ExtractDBColumns[journal.Journal](),
			func() *journal.Journal { return &journal.Journal{} },
		),
	}
}

// ListByCompany retrieves all journals of one company.
func (r *JournalRepo) ListByCompany(ctx context.Context, companyID int64) ([]*journal.Journal, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[journal.Journal]()...).
		From("cat_journals").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"active": true}).
		OrderBy("code ASC")

	return r.FindMany(ctx, q)
}

var _ journal.Repository = (*JournalRepo)(nil)
