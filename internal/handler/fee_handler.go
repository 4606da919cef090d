package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// FeeHandler exposes fee structures, fee payments and fee totals.
type FeeHandler struct {
	fees    *service.FeeService
	exports *service.ExportService
}

// NewFeeHandler constructs a FeeHandler.
func NewFeeHandler(fees *service.FeeService, exports *service.ExportService) *FeeHandler {
	return &FeeHandler{fees: fees, exports: exports}
}

// ListStructures godoc
// @Summary List fee structures
// @Tags Fees
// @Produce json
// @Param class query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /fee-structures [get]
func (h *FeeHandler) ListStructures(c *gin.Context) { listRecords(c, h.fees.ListStructures) }

// GetStructure godoc
// @Summary Get fee structure
// @Tags Fees
// @Produce json
// @Param id path string true "Fee structure ID"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id} [get]
func (h *FeeHandler) GetStructure(c *gin.Context) { getRecord(c, h.fees.GetStructure) }

// CreateStructure godoc
// @Summary Create fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateFeeStructureRequest true "Fee structure payload"
// @Success 201 {object} response.Envelope
// @Router /fee-structures [post]
func (h *FeeHandler) CreateStructure(c *gin.Context) { createRecord(c, h.fees.CreateStructure) }

// UpdateStructure godoc
// @Summary Update fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee structure ID"
// @Param payload body service.UpdateFeeStructureRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /fee-structures/{id} [patch]
func (h *FeeHandler) UpdateStructure(c *gin.Context) { updateRecord(c, h.fees.UpdateStructure) }

// DeleteStructure godoc
// @Summary Move fee structure to the recycle bin
// @Tags Fees
// @Param id path string true "Fee structure ID"
// @Success 204
// @Router /fee-structures/{id} [delete]
func (h *FeeHandler) DeleteStructure(c *gin.Context) { deleteRecord(c, h.fees.DeleteStructure) }

// ListPayments godoc
// @Summary List fee payments
// @Tags Fees
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param mode query string false "Filter by payment mode"
// @Param search query string false "Search by receipt number"
// @Success 200 {object} response.Envelope
// @Router /fee-payments [get]
func (h *FeeHandler) ListPayments(c *gin.Context) { listRecords(c, h.fees.ListPayments) }

// GetPayment godoc
// @Summary Get fee payment
// @Tags Fees
// @Produce json
// @Param id path string true "Fee payment ID"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/{id} [get]
func (h *FeeHandler) GetPayment(c *gin.Context) { getRecord(c, h.fees.GetPayment) }

// CreatePayment godoc
// @Summary Record fee payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateFeePaymentRequest true "Fee payment payload"
// @Success 201 {object} response.Envelope
// @Router /fee-payments [post]
func (h *FeeHandler) CreatePayment(c *gin.Context) { createRecord(c, h.fees.CreatePayment) }

// UpdatePayment godoc
// @Summary Update fee payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee payment ID"
// @Param payload body service.UpdateFeePaymentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/{id} [patch]
func (h *FeeHandler) UpdatePayment(c *gin.Context) { updateRecord(c, h.fees.UpdatePayment) }

// DeletePayment godoc
// @Summary Move fee payment to the recycle bin
// @Tags Fees
// @Param id path string true "Fee payment ID"
// @Success 204
// @Router /fee-payments/{id} [delete]
func (h *FeeHandler) DeletePayment(c *gin.Context) { deleteRecord(c, h.fees.DeletePayment) }

// Summary godoc
// @Summary Fee totals across all students
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/summary [get]
func (h *FeeHandler) Summary(c *gin.Context) {
	summary, err := h.fees.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Receipt godoc
// @Summary Printable fee receipt
// @Tags Fees
// @Produce application/pdf
// @Param id path string true "Fee payment ID"
// @Success 200 {file} file
// @Router /fee-payments/{id}/receipt [get]
func (h *FeeHandler) Receipt(c *gin.Context) {
	doc, err := h.exports.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDocument(c, doc, true)
}
