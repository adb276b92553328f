package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"

	"tally/internal/core/apperror"
	"tally/internal/domain/integrity"
)

// IntegrityHandler exposes hash chain verification.
type IntegrityHandler struct {
	*BaseHandler
	service *integrity.Service
}

// NewIntegrityHandler creates a new integrity handler.
func NewIntegrityHandler(base *BaseHandler, service *integrity.Service) *IntegrityHandler {
	return &IntegrityHandler{
		BaseHandler: base,
		service:     service,
	}
}

// VerifyJournal handles GET /integrity/journals/:id
func (h *IntegrityHandler) VerifyJournal(c *gin.Context) {
	journalID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	reports, err := h.service.VerifyJournal(c.Request.Context(), journalID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chains": reports})
}

// VerifyCompany handles GET /integrity/companies/:id
func (h *IntegrityHandler) VerifyCompany(c *gin.Context) {
	companyID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.service.VerifyCompany(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportCompany handles GET /integrity/companies/:id/export
// Streams the verification report as a zstd-compressed JSON attachment,
// suitable for archiving alongside the books.
func (h *IntegrityHandler) ExportCompany(c *gin.Context) {
	companyID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.service.VerifyCompany(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	filename := fmt.Sprintf("integrity-report-%d-%s.json.zst",
		companyID, report.GeneratedAt.Format("20060102-150405"))
	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	enc, err := zstd.NewWriter(c.Writer)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	if err := json.NewEncoder(enc).Encode(report); err != nil {
		_ = enc.Close()
		return
	}
	_ = enc.Close()
}
