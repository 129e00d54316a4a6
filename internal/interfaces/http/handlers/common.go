// Package handlers implements the REST endpoints for matching, analysis,
// and supplier-directory operations.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondError maps an error to its HTTP status and writes the structured
// body.  Server-side failures are masked so internals never leak to callers.
func respondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.ErrCodeInternal, "internal server error")
	}

	status := errors.HTTPStatusForCode(appErr.Code)
	body := ErrorBody{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Field:   appErr.Field,
	}
	if errors.IsServerError(appErr.Code) {
		body.Message = errors.DefaultMessageForCode(appErr.Code)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body, converting bind failures into the
// platform's validation error shape.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "malformed request body").WithCause(err))
		return false
	}
	return true
}

// ok writes a 200 response with body.
func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
