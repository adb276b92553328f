package journal

import (
	"context"

	"tally/internal/core/apperror"
	"tally/internal/core/tx"
	"tally/internal/domain"
)

// Service provides business logic for the Journal catalog.
type Service struct {
	*domain.CatalogService[*Journal]
	repo Repository
}

// NewService creates a new Journal service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Journal]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "journal",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeUpdate(svc.guardRestrictMode)

	return svc
}

// guardRestrictMode forbids switching the hash chain off once enabled.
func (s *Service) guardRestrictMode(ctx context.Context, j *Journal) error {
	if j.ID == 0 {
		return nil
	}
	current, err := s.repo.GetByID(ctx, j.ID)
	if err != nil {
		return err
	}
	if current.RestrictModeHashTable && !j.RestrictModeHashTable {
		return apperror.NewValidation("hash restrict mode cannot be disabled once enabled").
			WithDetail("field", "restrictModeHashTable")
	}
	return nil
}

// ListByCompany retrieves all journals of one company.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]*Journal, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
