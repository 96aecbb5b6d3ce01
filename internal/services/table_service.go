package services

import (
	"context"
	"errors"
	"fmt"

	"pglens/internal/models"
)

var ErrTableNotFound = errors.New("table not found")

// TableService browses tables of configured connections.
type TableService struct {
	apps *AppService
}

func NewTableService(apps *AppService) *TableService {
	return &TableService{apps: apps}
}

// Tables lists the tables of the connection's current snapshot.
func (s *TableService) Tables(connectionID string) ([]models.TableInfo, error) {
	conn, err := s.apps.Get(connectionID)
	if err != nil {
		return nil, err
	}
	return conn.Snapshot().Tables, nil
}

// Browse returns the first rows of schema.table. The table must be present in
// the connection's snapshot.
func (s *TableService) Browse(ctx context.Context, connectionID, schema, table string, opts TableQueryOptions) (*models.TableData, error) {
	conn, err := s.apps.Get(connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Snapshot().HasTable(schema, table) {
		return nil, fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, table)
	}
	return conn.BrowseTable(ctx, schema, table, opts)
}
