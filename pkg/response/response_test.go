package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/middleware/requestid"
)

func TestErrorCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", func(c *gin.Context) { Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Meta map[string]string `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "student not found", body.Error.Message)
	assert.Equal(t, "abc-123", body.Meta["request_id"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestJSONWrapsData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Created(c, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"1"}}`, rec.Body.String())
}
