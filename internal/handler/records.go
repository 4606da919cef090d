package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// Shared request plumbing for the record kinds whose handlers only forward
// to a service.

func listRecords[T any](c *gin.Context, list func(context.Context, service.ListParams) ([]T, *models.Pagination, error)) {
	items, pagination, err := list(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

func getRecord[T any](c *gin.Context, get func(context.Context, string) (*T, error)) {
	item, err := get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

func createRecord[Req any, T any](c *gin.Context, create func(context.Context, Req) (*T, error)) {
	var req Req
	if err := bindStrict(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

func updateRecord[Req any, T any](c *gin.Context, update func(context.Context, string, Req) (*T, error)) {
	var req Req
	if err := bindStrict(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

func deleteRecord(c *gin.Context, remove func(context.Context, string) error) {
	if err := remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
