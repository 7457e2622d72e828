package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
)

// ErrorBody error JSON body
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Meta pagination metadata
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// SuccessResponse writes data with 200
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// PagedResponse writes a bare array and exposes pagination via headers
func PagedResponse(c *gin.Context, data interface{}, meta *Meta) {
	if meta != nil {
		c.Header("X-Total-Count", strconv.FormatInt(meta.Total, 10))
		c.Header("X-Page", strconv.Itoa(meta.Page))
		c.Header("X-Limit", strconv.Itoa(meta.Limit))
	}
	c.JSON(http.StatusOK, data)
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		pkglogger.GetLogger().Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg(message)
	}

	c.JSON(status, ErrorBody{
		Message: message,
		Error:   getErrorCode(status),
	})
}

// ErrorFrom maps a service error through its kind and writes the response
func ErrorFrom(c *gin.Context, err error) {
	kind := KindOf(err)
	message := "internal server error"
	var appErr *AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	ErrorResponse(c, kind.Status(), message, err)
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	for _, info := range kindTable {
		if info.status == status {
			return info.code
		}
	}
	if status == http.StatusForbidden {
		return "FORBIDDEN"
	}
	return "ERROR"
}
