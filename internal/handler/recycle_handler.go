package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// RecycleHandler exposes the recycle bin.
type RecycleHandler struct {
	recycle *service.RecycleService
}

// NewRecycleHandler constructs a RecycleHandler.
func NewRecycleHandler(recycle *service.RecycleService) *RecycleHandler {
	return &RecycleHandler{recycle: recycle}
}

// List godoc
// @Summary List deleted records
// @Description Entries are ordered oldest first; the position is the index accepted by restore.
// @Tags RecycleBin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /recycle-bin [get]
func (h *RecycleHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.recycle.List(c.Request.Context()), nil)
}

// Restore godoc
// @Summary Restore a deleted record
// @Tags RecycleBin
// @Produce json
// @Param index path int true "Bin position"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recycle-bin/{index}/restore [post]
func (h *RecycleHandler) Restore(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "index must be an integer"))
		return
	}
	restored, err := h.recycle.Restore(c.Request.Context(), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, restored, nil)
}
