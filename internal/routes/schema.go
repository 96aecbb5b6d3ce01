package routes

import (
	"github.com/gin-gonic/gin"

	"pglens/internal/handlers"
)

type SchemaRoutes struct {
	handler *handlers.SchemaHandler
}

func NewSchemaRoutes(handler *handlers.SchemaHandler) *SchemaRoutes {
	return &SchemaRoutes{handler: handler}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("/connections/:id/schema")
	{
		schema.GET("/graph", r.handler.Graph)
		schema.GET("/visualize", r.handler.VisualizeSchema)
	}
}
