package account

import (
	"context"

	"tally/internal/domain"
)

// Repository defines the interface for Account persistence.
type Repository interface {
	domain.CatalogRepository[*Account]

	// ListByCompany retrieves the chart of accounts of one company.
	ListByCompany(ctx context.Context, companyID int64) ([]*Account, error)
}
