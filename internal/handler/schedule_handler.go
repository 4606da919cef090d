package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// ScheduleHandler exposes timetable slots.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List schedule slots
// @Tags Schedules
// @Produce json
// @Param class query string false "Filter by class"
// @Param day query string false "Filter by weekday"
// @Param teacherId query string false "Filter by teacher"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) { listRecords(c, h.schedules.List) }

// Get godoc
// @Summary Get schedule slot
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) { getRecord(c, h.schedules.Get) }

// Create godoc
// @Summary Create schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) { createRecord(c, h.schedules.Create) }

// Update godoc
// @Summary Update schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.UpdateScheduleRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [patch]
func (h *ScheduleHandler) Update(c *gin.Context) { updateRecord(c, h.schedules.Update) }

// Delete godoc
// @Summary Move schedule slot to the recycle bin
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) { deleteRecord(c, h.schedules.Delete) }

// Timetable godoc
// @Summary Weekly timetable of a class
// @Tags Schedules
// @Produce json
// @Param class path string true "Class"
// @Success 200 {object} response.Envelope
// @Router /timetable/{class} [get]
func (h *ScheduleHandler) Timetable(c *gin.Context) {
	days, err := h.schedules.Timetable(c.Request.Context(), c.Param("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}
