package http

import (
	"errors"
	"net/http"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const (
	codeValidation        = "validation_error"
	codeUnauthorized      = "unauthorized"
	codeForbidden         = "forbidden"
	codeNotFound          = "not_found"
	codeConflict          = "conflict"
	codeInvalidTransition = "invalid_transition"
	codeBadRequest        = "bad_request"
	codeInternal          = "internal_error"
)

type successResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"Success"`
	Data    interface{} `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"not found: bike not found"`
}

var statusCodes = map[int]string{
	http.StatusBadRequest:          codeBadRequest,
	http.StatusUnauthorized:        codeUnauthorized,
	http.StatusForbidden:           codeForbidden,
	http.StatusNotFound:            codeNotFound,
	http.StatusConflict:            codeConflict,
	http.StatusUnprocessableEntity: codeValidation,
}

func newSuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, successResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func newErrorResponse(c *gin.Context, status int, message string) {
	code, ok := statusCodes[status]
	if !ok {
		code = codeInternal
	}
	writeError(c, status, code, message)
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// errorStatus maps a domain error to its HTTP status and machine code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, codeInvalidTransition
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest
	}
	return http.StatusInternalServerError, codeInternal
}

// handleError logs err and writes the matching error body. Internal errors never leak their text.
func handleError(c *gin.Context, logger ports.LoggerPort, msg string, err error, fields map[string]interface{}) {
	status, code := errorStatus(err)
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err.Error()
	fields["path"] = c.FullPath()

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(msg, fields)
		message = "Internal server error"
	} else {
		logger.Warn(msg, fields)
	}
	writeError(c, status, code, message)
}
