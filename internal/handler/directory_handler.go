package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// DirectoryHandler serves filter option lists.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs a DirectoryHandler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Options godoc
// @Summary Distinct classes, sections, subjects and departments
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /directory/options [get]
func (h *DirectoryHandler) Options(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.directory.Options(c.Request.Context()), nil)
}
