package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pglens/internal/middlewares"
	"pglens/internal/models"
	"pglens/internal/responses"
	"pglens/internal/services"
)

type ConnectionHandler struct {
	apps *services.AppService
}

func NewConnectionHandler(apps *services.AppService) *ConnectionHandler {
	return &ConnectionHandler{apps: apps}
}

// ConnectionSummary is the public view of a connection; it never carries the
// password.
type ConnectionSummary struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Order    int                     `json:"order"`
	Status   models.ConnectionStatus `json:"status"`
	Host     string                  `json:"host"`
	Port     int                     `json:"port"`
	User     string                  `json:"user"`
	Database string                  `json:"database"`
}

func summarize(conn *services.Connection) ConnectionSummary {
	args := conn.Args()
	return ConnectionSummary{
		ID:       conn.ID(),
		Name:     conn.Name(),
		Order:    conn.Order(),
		Status:   conn.Status(),
		Host:     args.Host,
		Port:     args.Port,
		User:     args.User,
		Database: args.Database,
	}
}

func mustConnection(c *gin.Context) (*services.Connection, bool) {
	conn, ok := middlewares.Connection(c)
	if !ok {
		responses.Fail(c, http.StatusInternalServerError, nil, "Connection not resolved")
	}
	return conn, ok
}

// ListConnections handles GET /api/v1/connections
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	conns := h.apps.List()
	out := make([]ConnectionSummary, 0, len(conns))
	for _, conn := range conns {
		out = append(out, summarize(conn))
	}
	responses.Success(c, http.StatusOK, out, "Connections retrieved successfully")
}

// CreateConnection handles POST /api/v1/connections
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	var req models.ConnectionConfigFile
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	conn, err := h.apps.Create(req)
	if err != nil {
		fail(c, err, "Failed to create connection")
		return
	}

	responses.Success(c, http.StatusCreated, summarize(conn), "Connection created successfully")
}

// DeleteConnection handles DELETE /api/v1/connections/:id
func (h *ConnectionHandler) DeleteConnection(c *gin.Context) {
	if err := h.apps.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "Failed to delete connection")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Connection deleted successfully")
}

// Connect handles POST /api/v1/connections/:id/connect
func (h *ConnectionHandler) Connect(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}

	if err := conn.Connect(c.Request.Context()); err != nil {
		fail(c, err, "Failed to connect")
		return
	}
	responses.Success(c, http.StatusOK, summarize(conn), "Connected successfully")
}

// Status handles GET /api/v1/connections/:id/status
func (h *ConnectionHandler) Status(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"id": conn.ID(), "status": conn.Status()}, "")
}

// GetMeta handles GET /api/v1/connections/:id/meta
func (h *ConnectionHandler) GetMeta(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}
	responses.Success(c, http.StatusOK, conn.Snapshot(), "")
}

// RefreshMeta handles POST /api/v1/connections/:id/meta
func (h *ConnectionHandler) RefreshMeta(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}

	snap, err := conn.UpdateMeta(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to refresh metadata")
		return
	}
	responses.Success(c, http.StatusOK, snap, "Metadata refreshed successfully")
}

// ListQueries handles GET /api/v1/connections/:id/queries
func (h *ConnectionHandler) ListQueries(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}
	responses.Success(c, http.StatusOK, conn.Queries(), "")
}

// SaveQuery handles PUT /api/v1/connections/:id/queries
func (h *ConnectionHandler) SaveQuery(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}

	var req models.Query
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.Name == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Query name is required")
		return
	}

	saved := conn.SaveQuery(req)
	if err := h.apps.Save(); err != nil {
		fail(c, err, "Failed to save configuration")
		return
	}
	responses.Success(c, http.StatusOK, saved, "Query saved successfully")
}

// DeleteQuery handles DELETE /api/v1/connections/:id/queries/:queryId
func (h *ConnectionHandler) DeleteQuery(c *gin.Context) {
	conn, ok := mustConnection(c)
	if !ok {
		return
	}

	if err := conn.RemoveQuery(c.Param("queryId")); err != nil {
		fail(c, err, "Failed to delete query")
		return
	}
	if err := h.apps.Save(); err != nil {
		fail(c, err, "Failed to save configuration")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Query deleted successfully")
}
