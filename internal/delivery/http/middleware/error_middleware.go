package middleware

import (
	"errors"
	"net/http"

	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/pkg/apperror"
	"agency-contact-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed",
					"status", appErr.Code,
					"path", c.FullPath(),
					"request_id", c.GetString("RequestID"),
					"client_id", c.GetString("ClientID"),
					"error", errorDetail(appErr),
				)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Fields)
			return
		}

		// Internal details stay in the server log
		logger.Log.Error("Internal Server Error",
			"path", c.FullPath(),
			"request_id", c.GetString("RequestID"),
			"client_id", c.GetString("ClientID"),
			"error", err.Error(),
		)
		response.Error(c, http.StatusInternalServerError, "Internal server error. Please try again later.", nil)
	}
}

func errorDetail(appErr *apperror.AppError) string {
	if appErr.Err != nil {
		return appErr.Err.Error()
	}
	return appErr.Message
}
