package routes

import (
	"github.com/gin-gonic/gin"

	"pglens/internal/handlers"
)

type TableRoutes struct {
	handler *handlers.TableHandler
}

func NewTableRoutes(handler *handlers.TableHandler) *TableRoutes {
	return &TableRoutes{handler: handler}
}

func (r *TableRoutes) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/connections/:id/tables")
	{
		tables.GET("", r.handler.ListTables)
		tables.GET("/:schema/:table", r.handler.BrowseTable)
	}
}
