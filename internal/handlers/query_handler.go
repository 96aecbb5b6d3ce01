package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pglens/internal/responses"
	"pglens/internal/services"
)

type QueryHandler struct {
	queryService *services.QueryService
}

func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// ExecuteQuery handles POST /api/v1/connections/:id/query
func (h *QueryHandler) ExecuteQuery(c *gin.Context) {
	var req services.ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: sql is required")
		return
	}

	result, err := h.queryService.Execute(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "Failed to execute query")
		return
	}

	responses.Success(c, http.StatusOK, result, "Query executed successfully")
}

// GetQueryHistory handles GET /api/v1/connections/:id/history
func (h *QueryHandler) GetQueryHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			responses.Fail(c, http.StatusBadRequest, err, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	history, err := h.queryService.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		fail(c, err, "Failed to load query history")
		return
	}

	responses.Success(c, http.StatusOK, history, "")
}
