package handler

import (
	"net/http"

	"github.com/campusware/gatepass/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewAppErrorResponse surfaces the machine-readable reason code so
// clients never need to parse message text.
func NewAppErrorResponse(err error) *Response {
	return &Response{
		Status:  "error",
		Code:    string(errors.CodeOf(err)),
		Message: err.Error(),
	}
}

// StatusOf maps a reason code to an HTTP status.
func StatusOf(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeUnknownIdentifier, errors.CodeWrongPassword:
		return http.StatusUnauthorized
	case errors.CodeLocked, errors.CodeDisabled:
		return http.StatusForbidden
	case errors.CodeInsufficientRole, errors.CodeNotOwnDepartment, errors.CodeNoDelegatedGrant:
		return http.StatusForbidden
	case errors.CodeWeakPassword, errors.CodeSamePassword, errors.CodeBadRequest:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeTagMismatch:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
