package routes

import (
	"github.com/gin-gonic/gin"

	"pglens/internal/handlers"
)

type ConnectionRoutes struct {
	handler *handlers.ConnectionHandler
}

func NewConnectionRoutes(handler *handlers.ConnectionHandler) *ConnectionRoutes {
	return &ConnectionRoutes{handler: handler}
}

func (r *ConnectionRoutes) RegisterRoutes(router *gin.RouterGroup, resolve gin.HandlerFunc) {
	router.GET("/connections", r.handler.ListConnections)
	router.POST("/connections", r.handler.CreateConnection)
	router.DELETE("/connections/:id", r.handler.DeleteConnection)

	conn := router.Group("/connections/:id")
	conn.Use(resolve)
	{
		conn.POST("/connect", r.handler.Connect)
		conn.GET("/status", r.handler.Status)
		conn.GET("/meta", r.handler.GetMeta)
		conn.POST("/meta", r.handler.RefreshMeta)

		// Saved queries
		conn.GET("/queries", r.handler.ListQueries)
		conn.PUT("/queries", r.handler.SaveQuery)
		conn.DELETE("/queries/:queryId", r.handler.DeleteQuery)
	}
}
