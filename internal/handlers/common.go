package handlers

import (
	"net/http"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"not_found"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// respondError maps service error codes to HTTP statuses. Unknown errors are
// treated as transient store failures.
func respondError(c *gin.Context, err error) {
	code := services.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case services.CodeNotFound:
		status = http.StatusNotFound
	case services.CodeValidation:
		status = http.StatusBadRequest
	case services.CodePermissionDenied:
		status = http.StatusForbidden
	case services.CodeConflict:
		status = http.StatusConflict
	case services.CodeTransientStore:
		status = http.StatusBadGateway
	case services.CodePartialPublish:
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: string(code)})
}
