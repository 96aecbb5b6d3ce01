package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pglens/internal/responses"
	"pglens/internal/services"
)

type TableHandler struct {
	tableService *services.TableService
}

func NewTableHandler(tableService *services.TableService) *TableHandler {
	return &TableHandler{
		tableService: tableService,
	}
}

// ListTables handles GET /api/v1/connections/:id/tables
func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.tableService.Tables(c.Param("id"))
	if err != nil {
		fail(c, err, "Failed to list tables")
		return
	}
	responses.Success(c, http.StatusOK, tables, "")
}

// BrowseTable handles GET /api/v1/connections/:id/tables/:schema/:table
func (h *TableHandler) BrowseTable(c *gin.Context) {
	opts := services.DefaultTableQueryOptions()

	if raw := c.Query("resolve_fks"); raw != "" {
		resolve, err := strconv.ParseBool(raw)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "resolve_fks must be a boolean")
			return
		}
		opts.ResolveForeignKeys = resolve
	}
	if raw := c.Query("strict_quoting"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "strict_quoting must be a boolean")
			return
		}
		opts.StrictQuoting = strict
	}

	data, err := h.tableService.Browse(c.Request.Context(), c.Param("id"), c.Param("schema"), c.Param("table"), opts)
	if err != nil {
		fail(c, err, "Failed to load table data")
		return
	}

	responses.Success(c, http.StatusOK, data, "Table data retrieved successfully")
}
