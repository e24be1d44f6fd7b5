package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapError translates pipeline and storage errors to HTTP status codes and error codes.
func MapError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	}
	switch common.Classify(err) {
	case common.CodeNoRecords:
		return http.StatusUnprocessableEntity, common.CodeNoRecords,
			"no records found; try force_ocr=false or a different dpi"
	case common.CodeExtractionFailed:
		return http.StatusBadGateway, common.CodeExtractionFailed, err.Error()
	case common.CodeInvalidInput:
		return http.StatusBadRequest, common.CodeInvalidInput, err.Error()
	case common.CodeNotFound:
		return http.StatusNotFound, common.CodeNotFound, "resource not found"
	case common.CodeTimeout:
		return http.StatusGatewayTimeout, common.CodeTimeout, "conversion timed out"
	default:
		return http.StatusInternalServerError, common.CodeInternal, "an internal error occurred"
	}
}

// HandleError maps err and sends the matching error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapError(err)
	_ = c.Error(err)
	RespondError(c, status, code, msg)
}
