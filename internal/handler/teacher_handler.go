package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
)

// TeacherHandler wires teacher services to HTTP routes.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Search by name or subject"
// @Param subject query string false "Filter by subject"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) { listRecords(c, h.teachers.List) }

// Get godoc
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) { getRecord(c, h.teachers.Get) }

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) { createRecord(c, h.teachers.Create) }

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.UpdateTeacherRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [patch]
func (h *TeacherHandler) Update(c *gin.Context) { updateRecord(c, h.teachers.Update) }

// Delete godoc
// @Summary Move teacher to the recycle bin
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) { deleteRecord(c, h.teachers.Delete) }

// StaffHandler exposes non-teaching staff endpoints.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(staff *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Param search query string false "Search by name or role"
// @Param department query string false "Filter by department"
// @Param role query string false "Filter by role"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) { listRecords(c, h.staff.List) }

// Get godoc
// @Summary Get staff member
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) { getRecord(c, h.staff.Get) }

// Create godoc
// @Summary Create staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body service.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) { createRecord(c, h.staff.Create) }

// Update godoc
// @Summary Update staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Staff ID"
// @Param payload body service.UpdateStaffRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [patch]
func (h *StaffHandler) Update(c *gin.Context) { updateRecord(c, h.staff.Update) }

// Delete godoc
// @Summary Move staff member to the recycle bin
// @Tags Staff
// @Param id path string true "Staff ID"
// @Success 204
// @Router /staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) { deleteRecord(c, h.staff.Delete) }
