package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param class query string false "Filter by class"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param status query string false "present or absent"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) { listRecords(c, h.attendance.List) }

// Get godoc
// @Summary Get attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [get]
func (h *AttendanceHandler) Get(c *gin.Context) { getRecord(c, h.attendance.Get) }

// Create godoc
// @Summary Mark attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Create(c *gin.Context) { createRecord(c, h.attendance.Create) }

// Update godoc
// @Summary Update attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body service.UpdateAttendanceRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [patch]
func (h *AttendanceHandler) Update(c *gin.Context) { updateRecord(c, h.attendance.Update) }

// Delete godoc
// @Summary Move attendance record to the recycle bin
// @Tags Attendance
// @Param id path string true "Attendance ID"
// @Success 204
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) { deleteRecord(c, h.attendance.Delete) }
