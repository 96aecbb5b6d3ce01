package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pglens/internal/handlers"
	"pglens/internal/middlewares"
	"pglens/internal/services"
)

// Handlers groups everything RegisterRoutes wires.
type Handlers struct {
	Connection *handlers.ConnectionHandler
	Table      *handlers.TableHandler
	Query      *handlers.QueryHandler
	Schema     *handlers.SchemaHandler
}

func RegisterRoutes(router *gin.Engine, apps *services.AppService, h Handlers) {
	api := router.Group("/api/v1")

	connectionRoutes := NewConnectionRoutes(h.Connection)
	connectionRoutes.RegisterRoutes(api, middlewares.ResolveConnection(apps))

	tableRoutes := NewTableRoutes(h.Table)
	tableRoutes.RegisterRoutes(api)

	queryRoutes := NewQueryRoutes(h.Query)
	queryRoutes.RegisterRoutes(api)

	schemaRoutes := NewSchemaRoutes(h.Schema)
	schemaRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
