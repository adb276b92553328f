package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tally/internal/domain/journal"
	"tally/internal/infrastructure/http/v1/dto"
)

// JournalHandler extends the generic catalog handler with the per-company
// journal list.
type JournalHandler struct {
	*CatalogHandler[*journal.Journal, dto.CreateJournalRequest, dto.UpdateJournalRequest]
	service *journal.Service
}

// NewJournalHandler wires the Journal catalog into the generic handler.
func NewJournalHandler(base *BaseHandler, service *journal.Service) *JournalHandler {
	config := CatalogHandlerConfig[
		*journal.Journal,
		dto.CreateJournalRequest,
		dto.UpdateJournalRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "journal",

		MapCreateDTO: func(req dto.CreateJournalRequest) *journal.Journal {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateJournalRequest, existing *journal.Journal) *journal.Journal {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *journal.Journal) any {
			return dto.FromJournal(entity)
		},
	}

	return &JournalHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// ListByCompany handles GET /companies/:id/journals
func (h *JournalHandler) ListByCompany(c *gin.Context) {
	companyID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	journals, err := h.service.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.JournalResponse, len(journals))
	for i, j := range journals {
		items[i] = dto.FromJournal(j)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
