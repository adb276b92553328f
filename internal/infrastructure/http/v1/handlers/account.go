package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tally/internal/domain/account"
	"tally/internal/infrastructure/http/v1/dto"
)

// AccountHandler extends the generic catalog handler with the per-company
// chart of accounts.
type AccountHandler struct {
	*CatalogHandler[*account.Account, dto.CreateAccountRequest, dto.UpdateAccountRequest]
	service *account.Service
}

// NewAccountHandler wires the Account catalog into the generic handler.
func NewAccountHandler(base *BaseHandler, service *account.Service) *AccountHandler {
	config := CatalogHandlerConfig[
		*account.Account,
		dto.CreateAccountRequest,
		dto.UpdateAccountRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "account",

		MapCreateDTO: func(req dto.CreateAccountRequest) *account.Account {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateAccountRequest, existing *account.Account) *account.Account {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *account.Account) any {
			return dto.FromAccount(entity)
		},
	}

	return &AccountHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// ListByCompany handles GET /companies/:id/accounts
func (h *AccountHandler) ListByCompany(c *gin.Context) {
	companyID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	accounts, err := h.service.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.AccountResponse, len(accounts))
	for i, a := range accounts {
		items[i] = dto.FromAccount(a)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
