package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta/backend/internal/domain/shared"
	"github.com/moneta/backend/internal/interfaces/http/dto"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	w := performRequest(func(c *gin.Context) {
		h.Success(c, gin.H{"hello": "world"})
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := performRequest(func(c *gin.Context) {
		h.SuccessWithMeta(c, []int{1, 2, 3}, 23, 1, 10)
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(23), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("domain error maps via error code", func(t *testing.T) {
		w := performRequest(func(c *gin.Context) {
			h.HandleError(c, shared.NewDomainError("SCHEDULE_NOT_FOUND", "Schedule not found"))
		})

		require.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "SCHEDULE_NOT_FOUND", resp.Error.Code)
		assert.Equal(t, "Schedule not found", resp.Error.Message)
	})

	t.Run("validation code maps to 400", func(t *testing.T) {
		w := performRequest(func(c *gin.Context) {
			h.HandleError(c, shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be 1..28"))
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown error becomes opaque 500", func(t *testing.T) {
		w := performRequest(func(c *gin.Context) {
			h.HandleError(c, errors.New("pq: connection refused"))
		})

		require.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "pq:")
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := performRequest(func(c *gin.Context) {
			h.HandleError(c, nil)
			c.Status(http.StatusOK)
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBaseHandler_ErrorIncludesRequestID(t *testing.T) {
	h := &BaseHandler{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", func(c *gin.Context) {
		c.Set(RequestIDKey, "req-abc")
		h.NotFound(c, "nope")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-abc", resp.Error.RequestID)
}

func TestBindFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("defaults", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?", nil)

		filter, err := bindFilter(c)
		require.NoError(t, err)
		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, 20, filter.PageSize)
		assert.Equal(t, "created_at", filter.OrderBy)
		assert.Equal(t, "desc", filter.OrderDir)
	})

	t.Run("explicit values", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=50&order_by=posted_on&order_dir=asc&search=rent", nil)

		filter, err := bindFilter(c)
		require.NoError(t, err)
		assert.Equal(t, 3, filter.Page)
		assert.Equal(t, 50, filter.PageSize)
		assert.Equal(t, "posted_on", filter.OrderBy)
		assert.Equal(t, "asc", filter.OrderDir)
		assert.Equal(t, "rent", filter.Search)
	})

	t.Run("page size over limit rejected", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?page_size=5000", nil)

		_, err := bindFilter(c)
		assert.Error(t, err)
	})
}
