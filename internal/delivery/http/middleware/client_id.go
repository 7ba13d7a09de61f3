package middleware

import (
	"agency-contact-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// ClientID resolves the forwarded client identifier once per request.
// gin's ClientIP is not used because it ignores forwarding headers unless
// trusted proxies are configured, and the hosting platform's proxy set is unknown.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := security.ClientIdentifier(c.Request.Header)
		c.Set("ClientID", id)
		c.Next()
	}
}

// clientIDFrom returns the identifier set by ClientID, resolving it if absent
func clientIDFrom(c *gin.Context) string {
	if id := c.GetString("ClientID"); id != "" {
		return id
	}
	return security.ClientIdentifier(c.Request.Header)
}
