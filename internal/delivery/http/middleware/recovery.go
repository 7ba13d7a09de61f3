package middleware

import (
	"fmt"
	"net/http"

	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into the standard generic 500 envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			"path", c.Request.URL.Path,
			"request_id", c.GetString("RequestID"),
			"client_id", c.GetString("ClientID"),
			"panic", fmt.Sprint(recovered),
		)
		response.Error(c, http.StatusInternalServerError, "Internal server error. Please try again later.", nil)
		c.Abort()
	})
}
