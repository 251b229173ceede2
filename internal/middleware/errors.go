package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobboard/internal/apperr"
)

type ErrorDetail struct {
	Kind    string            `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// WriteError aborts the request with err rendered in the API error shape.
// Internal causes are attached to the gin context for the request logger
// and never reach the client.
func WriteError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("internal server error", err)
	}
	detail := ErrorDetail{
		Kind:    string(appErr.Kind),
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}
	if appErr.Kind == apperr.KindInternal {
		_ = c.Error(err)
		detail.Message = "internal server error"
		detail.Code = string(apperr.KindInternal)
	}
	if appErr.Kind == apperr.KindAuthenticationRequired {
		c.Header("WWW-Authenticate", `Bearer realm="jobboard"`)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(appErr.Kind), ErrorResponse{Error: detail})
}
