// Package response provides unified API response structures.
// All HTTP endpoints return the same envelope so clients can handle
// success and failure uniformly.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// Response is the unified API response envelope.
type Response struct {
	// Code is the business error code (0 = success).
	Code int `json:"code"`

	// Message is a human-readable message.
	Message string `json:"message"`

	// Data contains the response payload, nil for errors.
	Data interface{} `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Success creates a successful response with data.
func Success(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// Err creates an error response from an Errno.
func Err(e *errors.Errno, lang string) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:    e.Code,
		Message: e.Message(lang),
	}
}

// HTTPStatus returns the HTTP status matching the response code. It
// consults the errno registry first and falls back to the code category.
func (r *Response) HTTPStatus() int {
	if r.Code == 0 {
		return http.StatusOK
	}

	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteSuccess writes a success envelope to the gin context.
func WriteSuccess(c *gin.Context, data interface{}) {
	resp := Success(data)
	resp.RequestID = c.GetString("request_id")
	c.JSON(http.StatusOK, resp)
}

// WriteError converts err into an error envelope. Unregistered errors map
// to the internal error code. The message language follows the request's
// Accept-Language header, defaulting to Spanish.
func WriteError(c *gin.Context, err error) {
	errno := errors.FromError(err)
	resp := Err(errno, Lang(c))
	resp.RequestID = c.GetString("request_id")
	c.JSON(errno.HTTPStatus(), resp)
}

// Lang selects the response language from the Accept-Language header.
// Spanish is the default since the service targets Spanish-speaking users.
func Lang(c *gin.Context) string {
	accept := c.GetHeader("Accept-Language")
	if len(accept) >= 2 && accept[:2] == "en" {
		return "en"
	}
	return "es"
}
