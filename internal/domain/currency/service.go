package currency

import (
	"tally/internal/core/tx"
	"tally/internal/domain"
)

// Service provides business logic for the Currency catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Currency]
	repo Repository
}

// NewService creates a new Currency service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Currency]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "currency",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
