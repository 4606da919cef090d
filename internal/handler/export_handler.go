package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// ExportHandler streams list exports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export a record list
// @Description Accepts the same filters and search as the list endpoint of the kind.
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "students, teachers, staff, fee-structures, fee-payments, attendance, exams, exam-results or schedules"
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Router /export/{kind} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	kind, ok := models.ParseKind(c.Param("kind"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown record kind "+c.Param("kind")))
		return
	}
	doc, err := h.exports.Export(c.Request.Context(), kind, c.Query("format"), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDocument(c, doc, false)
}
