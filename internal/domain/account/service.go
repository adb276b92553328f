package account

import (
	"context"

	"tally/internal/core/tx"
	"tally/internal/domain"
)

// Service provides business logic for the Account catalog.
type Service struct {
	*domain.CatalogService[*Account]
	repo Repository
}

// NewService creates a new Account service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Account]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "account",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// ListByCompany retrieves the chart of accounts of one company.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]*Account, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
