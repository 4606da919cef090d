package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

// maxBodyBytes bounds request bodies; photos arrive inline as data URLs.
const maxBodyBytes = 8 << 20

// bindStrict decodes the JSON body into dst, rejecting unknown fields and
// trailing data.
func bindStrict(c *gin.Context, dst interface{}) error {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return appErrors.Clone(appErrors.ErrValidation, "request body is required")
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload: "+err.Error())
	}
	if decoder.More() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid payload: unexpected data after JSON body")
	}
	return nil
}

// listParams reads filters, search and pagination from the query string.
// Every other query parameter is passed on as an exact-match filter; services
// ignore the ones their kind does not support.
func listParams(c *gin.Context) service.ListParams {
	params := service.ListParams{
		Filters: make(map[string]string),
		Search:  strings.TrimSpace(c.Query("search")),
	}
	for field, values := range c.Request.URL.Query() {
		switch field {
		case "search", "page", "limit", "format":
			continue
		}
		if len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			params.Filters[field] = strings.TrimSpace(values[0])
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		params.PageSize = size
	}
	return params
}

func sendDocument(c *gin.Context, doc *service.Document, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+doc.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
