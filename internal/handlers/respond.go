package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// respondError renders an error through the shared envelope. Domain errors
// map to their HTTP status; anything else is logged server-side and rendered
// as a generic 500 so infrastructure details never leak to clients.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if appErr, ok := models.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus(), models.ErrorResponse(appErr))
		return
	}

	logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"error":  err.Error(),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse(&models.AppError{
		Kind:    models.ErrKindInternal,
		Message: "operation failed",
	}))
}

// respondOK renders a success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.SuccessResponse(data))
}

// respondList renders a list result, using a warning envelope when the
// query matched nothing
func respondList(c *gin.Context, emptyMessage string, data interface{}, count int) {
	if count == 0 {
		c.JSON(http.StatusOK, models.WarningResponse(emptyMessage))
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(data))
}

// parseUUIDParam parses a URL path parameter as a UUID
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, models.NewValidationError("invalid %s format", name)
	}
	return id, nil
}
