package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
)

// ExamHandler exposes exams and exam results.
type ExamHandler struct {
	exams *service.ExamService
}

// NewExamHandler constructs an ExamHandler.
func NewExamHandler(exams *service.ExamService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// List godoc
// @Summary List exams
// @Tags Exams
// @Produce json
// @Param class query string false "Filter by class"
// @Param subject query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) { listRecords(c, h.exams.List) }

// Get godoc
// @Summary Get exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) { getRecord(c, h.exams.Get) }

// Create godoc
// @Summary Schedule exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body service.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) { createRecord(c, h.exams.Create) }

// Update godoc
// @Summary Update exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body service.UpdateExamRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [patch]
func (h *ExamHandler) Update(c *gin.Context) { updateRecord(c, h.exams.Update) }

// Delete godoc
// @Summary Move exam to the recycle bin
// @Tags Exams
// @Param id path string true "Exam ID"
// @Success 204
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) { deleteRecord(c, h.exams.Delete) }

// ListResults godoc
// @Summary List exam results
// @Tags Exams
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param examId query string false "Filter by exam"
// @Success 200 {object} response.Envelope
// @Router /exam-results [get]
func (h *ExamHandler) ListResults(c *gin.Context) { listRecords(c, h.exams.ListResults) }

// GetResult godoc
// @Summary Get exam result
// @Tags Exams
// @Produce json
// @Param id path string true "Exam result ID"
// @Success 200 {object} response.Envelope
// @Router /exam-results/{id} [get]
func (h *ExamHandler) GetResult(c *gin.Context) { getRecord(c, h.exams.GetResult) }

// CreateResult godoc
// @Summary Record exam result
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body service.CreateExamResultRequest true "Exam result payload"
// @Success 201 {object} response.Envelope
// @Router /exam-results [post]
func (h *ExamHandler) CreateResult(c *gin.Context) { createRecord(c, h.exams.CreateResult) }

// UpdateResult godoc
// @Summary Update exam result
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam result ID"
// @Param payload body service.UpdateExamResultRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /exam-results/{id} [patch]
func (h *ExamHandler) UpdateResult(c *gin.Context) { updateRecord(c, h.exams.UpdateResult) }

// DeleteResult godoc
// @Summary Move exam result to the recycle bin
// @Tags Exams
// @Param id path string true "Exam result ID"
// @Success 204
// @Router /exam-results/{id} [delete]
func (h *ExamHandler) DeleteResult(c *gin.Context) { deleteRecord(c, h.exams.DeleteResult) }
