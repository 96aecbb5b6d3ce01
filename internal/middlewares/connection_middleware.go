package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pglens/internal/services"
)

const connectionKey = "connection"

// ResolveConnection looks up the connection named by the :id path parameter
// and stores it in the context for handlers.
func ResolveConnection(apps *services.AppService) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := apps.Get(c.Param("id"))
		if errors.Is(err, services.ErrConnectionNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"status": "error", "message": "Connection not found", "error": err.Error()})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to load connection", "error": err.Error()})
			return
		}

		c.Set(connectionKey, conn)
		c.Next()
	}
}

// Connection returns the connection stored by ResolveConnection.
func Connection(c *gin.Context) (*services.Connection, bool) {
	v, exists := c.Get(connectionKey)
	if !exists {
		return nil, false
	}
	conn, ok := v.(*services.Connection)
	return conn, ok
}
