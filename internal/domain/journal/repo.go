package journal

import (
	"context"

	"tally/internal/domain"
)

// Repository defines the interface for Journal persistence.
type Repository interface {
	domain.CatalogRepository[*Journal]

	// ListByCompany retrieves all journals of one company.
	ListByCompany(ctx context.Context, companyID int64) ([]*Journal, error)
}
