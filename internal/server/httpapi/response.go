package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gallerysync/internal/common"
)

const (
	statusSuccess     = "success"
	statusClientError = "client_error"
	statusServerError = "server_error"
)

// envelope is the body of every response.
type envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func success(c *gin.Context, code int, data any) {
	c.JSON(code, envelope{Status: statusSuccess, Code: code, Data: data})
}

func clientError(c *gin.Context, code int, message string, data any) {
	c.AbortWithStatusJSON(code, envelope{Status: statusClientError, Code: code, Message: message, Data: data})
}

func serverError(c *gin.Context, code int, message string, data any) {
	c.AbortWithStatusJSON(code, envelope{Status: statusServerError, Code: code, Message: message, Data: data})
}

// writeError maps service errors to responses. data, if any, is attached
// to the body.
func (s *HTTPServer) writeError(c *gin.Context, err error, data any) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		clientError(c, http.StatusBadRequest, err.Error(), data)
	case errors.Is(err, common.ErrorUnauthorized):
		clientError(c, http.StatusUnauthorized, "unauthorized", data)
	case errors.Is(err, common.ErrorNotFound):
		clientError(c, http.StatusNotFound, "not found", data)
	case errors.Is(err, common.ErrBatchFailed):
		s.logger.Error(c.Request.Context(), "object store batch failed", "error", err)
		serverError(c, http.StatusBadGateway, "object store unavailable", data)
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		serverError(c, http.StatusInternalServerError, "internal error", data)
	}
}
