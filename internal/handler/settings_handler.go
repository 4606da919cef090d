package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// SettingsHandler exposes the settings singleton.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Current settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.settings.Get(c.Request.Context()), nil)
}

// Update godoc
// @Summary Update settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.UpdateSettingsRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /settings [patch]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := bindStrict(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
