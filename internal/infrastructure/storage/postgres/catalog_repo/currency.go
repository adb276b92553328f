package catalog_repo

import (
	"tally/internal/domain/currency"
	"tally/internal/infrastructure/storage/postgres"
)

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*BaseCatalogRepo[*currency.Currency]
}

// NewCurrencyRepo creates a new currency repository.
func NewCurrencyRepo(txManager *postgres.TxManager) *CurrencyRepo {
	return &CurrencyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_currencies",
			postgres.ExtractDBColumns[currency.Currency](),
			func() *currency.Currency { return &currency.Currency{} },
		),
	}
}

// Compile-time interface check.
var _ currency.Repository = (*CurrencyRepo)(nil)
