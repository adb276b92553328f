package catalog_repo

import (
	"tally/internal/domain/company"
	"tally/internal/infrastructure/storage/postgres"
)

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	*BaseCatalogRepo[*company.Company]
}

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo(txManager *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_companies",
			postgres.ExtractDBColumns[company.Company](),
			func() *company.Company { return &company.Company{} },
		),
	}
}

var _ company.Repository = (*CompanyRepo)(nil)
