package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"tally/internal/domain/account"
	"tally/internal/infrastructure/storage/postgres"
)

// AccountRepo implements account.Repository.
type AccountRepo struct {
	*BaseCatalogRepo[*account.Account]
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_accounts",
			postgres.ExtractDBColumns[account.Account](),
			func() *account.Account { return &account.Account{} },
		),
	}
}

// ListByCompany retrieves the chart of accounts of one company.
func (r *AccountRepo) ListByCompany(ctx context.Context, companyID int64) ([]*account.Account, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[account.Account]()...).
		From("cat_accounts").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"active": true}).
		OrderBy("code ASC")

	return r.FindMany(ctx, q)
}

var _ account.Repository = (*AccountRepo)(nil)
