package handlers

import (
	"tally/internal/domain/currency"
	"tally/internal/infrastructure/http/v1/dto"
)

// CurrencyHTTPHandler shortens the generic handler signature.
type CurrencyHTTPHandler = CatalogHandler[
	*currency.Currency,
	dto.CreateCurrencyRequest,
	dto.UpdateCurrencyRequest,
]

// NewCurrencyHandler wires the Currency catalog into the generic handler.
func NewCurrencyHandler(
	base *BaseHandler,
	service *currency.Service,
) *CurrencyHTTPHandler {

	config := CatalogHandlerConfig[
		*currency.Currency,
		dto.CreateCurrencyRequest,
		dto.UpdateCurrencyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "currency",

		MapCreateDTO: func(req dto.CreateCurrencyRequest) *currency.Currency {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateCurrencyRequest, existing *currency.Currency) *currency.Currency {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *currency.Currency) any {
			return dto.FromCurrency(entity)
		},
	}

	return NewCatalogHandler(base, config)
}
