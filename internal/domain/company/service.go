package company

import (
	"context"
	"time"

	"tally/internal/core/tx"
	"tally/internal/domain"
)

// Service provides business logic for the Company catalog.
type Service struct {
	*domain.CatalogService[*Company]
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new Company service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Company]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "company",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
	}
}

// SetFiscalLockDate moves the fiscal lock date forward. Entries dated on or
// before the lock date can no longer be created, modified or posted.
func (s *Service) SetFiscalLockDate(ctx context.Context, companyID int64, lockDate time.Time) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, companyID)
		if err != nil {
			return err
		}
		d := lockDate
		c.FiscalLockDate = &d
		return s.repo.Update(ctx, c)
	})
}
