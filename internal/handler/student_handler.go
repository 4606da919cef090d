package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students   *service.StudentService
	fees       *service.FeeService
	attendance *service.AttendanceService
	exports    *service.ExportService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, fees *service.FeeService, attendance *service.AttendanceService, exports *service.ExportService) *StudentHandler {
	return &StudentHandler{students: students, fees: fees, attendance: attendance, exports: exports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name, roll number or student id"
// @Param class query string false "Filter by class"
// @Param section query string false "Filter by section"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, pagination, err := h.students.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := bindStrict(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := bindStrict(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Move student to the recycle bin
// @Description Fee payments, attendance and exam results of the student are moved with it.
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FeeStatus godoc
// @Summary Fee ledger of a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fee-status [get]
func (h *StudentHandler) FeeStatus(c *gin.Context) {
	ledger, err := h.fees.ComputeFeeStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}

// AttendanceSummary godoc
// @Summary Attendance totals of a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance-summary [get]
func (h *StudentHandler) AttendanceSummary(c *gin.Context) {
	summary, err := h.attendance.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// IDCard godoc
// @Summary Student identity card
// @Tags Students
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Router /students/{id}/id-card [get]
func (h *StudentHandler) IDCard(c *gin.Context) {
	doc, err := h.exports.IDCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDocument(c, doc, true)
}
