package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pglens/internal/responses"
	"pglens/internal/services"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// Graph handles GET /api/v1/connections/:id/schema/graph
func (h *SchemaHandler) Graph(c *gin.Context) {
	graph, err := h.schemaService.Graph(c.Param("id"), c.Query("schema"))
	if err != nil {
		fail(c, err, "Failed to build schema graph")
		return
	}
	responses.Success(c, http.StatusOK, graph, "")
}

// VisualizeSchema handles GET /api/v1/connections/:id/schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	schema := c.DefaultQuery("schema", "public")

	mermaidDiagram, err := h.schemaService.VisualizeSchema(c.Param("id"), schema)
	if err != nil {
		fail(c, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": mermaidDiagram,
		"schema":  schema,
	}, "Schema visualization generated successfully")
}
