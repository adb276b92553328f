package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tally/internal/domain/entry"
	"tally/internal/infrastructure/http/v1/dto"
)

// EntryHandler handles journal entry lifecycle endpoints.
type EntryHandler struct {
	*BaseHandler
	service *entry.Service
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(base *BaseHandler, service *entry.Service) *EntryHandler {
	return &EntryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /entries
func (h *EntryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := entry.ListFilter{
		State:  entry.State(c.Query("state")),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	filter.CompanyID = int64(h.ParseIntQuery(c, "companyId", 0))
	filter.JournalID = int64(h.ParseIntQuery(c, "journalId", 0))
	if from := c.Query("dateFrom"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = t
		}
	}
	if to := c.Query("dateTo"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.DateTo = t
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.EntryResponse, len(result.Items))
	for i, e := range result.Items {
		items[i] = dto.FromEntry(e)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /entries/:id
func (h *EntryHandler) Get(c *gin.Context) {
	entryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromEntry(e))
}

// Create handles POST /entries
func (h *EntryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntity()
	warnings, err := h.service.Create(ctx, e)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.EntryResult{
		Entry:    dto.FromEntry(e),
		Warnings: dto.FromWarnings(warnings),
	}
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Update handles PUT /entries/:id
func (h *EntryHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.service.GetByID(ctx, entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(e)

	warnings, err := h.service.Update(ctx, e)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.EntryResult{
		Entry:    dto.FromEntry(e),
		Warnings: dto.FromWarnings(warnings),
	}
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Post handles POST /entries/:id/post
func (h *EntryHandler) Post(c *gin.Context) {
	entryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	posted, warnings, err := h.service.Post(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.EntryResult{
		Entry:    dto.FromEntry(posted),
		Warnings: dto.FromWarnings(warnings),
	}
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Cancel handles POST /entries/:id/cancel
func (h *EntryHandler) Cancel(c *gin.Context) {
	entryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEntry(cancelled))
}

// ResetToDraft handles POST /entries/:id/reset-to-draft
func (h *EntryHandler) ResetToDraft(c *gin.Context) {
	entryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	reset, err := h.service.ResetToDraft(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEntry(reset))
}

// Delete handles DELETE /entries/:id?force=true
// Without force, only draft entries at the end of their chain can go.
func (h *EntryHandler) Delete(c *gin.Context) {
	entryID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	if err := h.service.Delete(c.Request.Context(), entryID, force); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
