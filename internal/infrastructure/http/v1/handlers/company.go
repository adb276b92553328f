package handlers

import (
	"github.com/gin-gonic/gin"

	"tally/internal/domain/company"
	"tally/internal/infrastructure/http/v1/dto"
)

// CompanyHandler extends the generic catalog handler with lock-date
// management.
type CompanyHandler struct {
	*CatalogHandler[*company.Company, dto.CreateCompanyRequest, dto.UpdateCompanyRequest]
	service *company.Service
}

// NewCompanyHandler wires the Company catalog into the generic handler.
func NewCompanyHandler(base *BaseHandler, service *company.Service) *CompanyHandler {
	config := CatalogHandlerConfig[
		*company.Company,
		dto.CreateCompanyRequest,
		dto.UpdateCompanyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "company",

		MapCreateDTO: func(req dto.CreateCompanyRequest) *company.Company {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateCompanyRequest, existing *company.Company) *company.Company {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *company.Company) any {
			return dto.FromCompany(entity)
		},
	}

	return &CompanyHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// SetFiscalLockDate handles POST /companies/:id/fiscal-lock-date
func (h *CompanyHandler) SetFiscalLockDate(c *gin.Context) {
	companyID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetLockDateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetFiscalLockDate(c.Request.Context(), companyID, req.LockDate); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "fiscal lock date updated")
}
