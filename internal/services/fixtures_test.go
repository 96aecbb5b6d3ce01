package services

import (
	"context"
	"sync"

	"pglens/internal/database"
	"pglens/internal/models"
)

func col(schema, table, name, typ string) models.ColumnInfo {
	return models.ColumnInfo{Schema: schema, Table: table, Name: name, Type: typ}
}

func fk(table, column, refTable, refColumn string) models.ForeignKeyInfo {
	return models.ForeignKeyInfo{
		Name:             table + "_" + column + "_fkey",
		Schema:           "public",
		Table:            table,
		Column:           column,
		ReferencedSchema: "public",
		ReferencedTable:  refTable,
		ReferencedColumn: refColumn,
	}
}

// shopSnapshot has one resolvable foreign key (orders.customer_id), one
// without a label column (orders.warehouse_id) and a self reference
// (employees.manager_id).
func shopSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Tables: []models.TableInfo{
			{Schema: "public", Name: "customers"},
			{Schema: "public", Name: "warehouses"},
			{Schema: "public", Name: "orders"},
			{Schema: "public", Name: "employees"},
		},
		Columns: []models.ColumnInfo{
			col("public", "customers", "id", "integer"),
			col("public", "customers", "code", "text"),
			col("public", "customers", "name", "character varying"),
			col("public", "customers", "description", "text"),
			col("public", "warehouses", "id", "integer"),
			col("public", "warehouses", "value", "integer"),
			col("public", "orders", "id", "integer"),
			col("public", "orders", "customer_id", "integer"),
			col("public", "orders", "warehouse_id", "integer"),
			col("public", "orders", "created_at", "timestamp with time zone"),
			col("public", "employees", "id", "integer"),
			col("public", "employees", "full_name", "text"),
			col("public", "employees", "manager_id", "integer"),
		},
		ForeignKeys: []models.ForeignKeyInfo{
			fk("orders", "customer_id", "customers", "id"),
			fk("orders", "warehouse_id", "warehouses", "id"),
			fk("employees", "manager_id", "employees", "id"),
		},
		PrimaryKeys: []models.PrimaryKeyInfo{
			{Schema: "public", Table: "customers", Name: "customers_pkey", Column: "id", Type: "integer"},
			{Schema: "public", Table: "warehouses", Name: "warehouses_pkey", Column: "id", Type: "integer"},
			{Schema: "public", Table: "orders", Name: "orders_pkey", Column: "id", Type: "integer"},
			{Schema: "public", Table: "employees", Name: "employees_pkey", Column: "id", Type: "integer"},
		},
		UniqueKeys: []models.UniqueKeyInfo{
			{Schema: "public", Table: "customers", Name: "customers_code_key", Columns: []string{"code"}},
		},
	}
}

func testArgs() database.ConnectionArgs {
	return database.ConnectionArgs{Host: "localhost", Port: 5432, User: "postgres", Password: "postgres", Database: "shop"}
}

func testConfig(id string) models.ConnectionConfigFile {
	return models.ConnectionConfigFile{ID: id, Name: id, Connection: testArgs()}
}

// memoryCache is a SnapshotCache backed by a map.
type memoryCache struct {
	mu       sync.Mutex
	items    map[string]*models.Snapshot
	storeErr error
	deleted  []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*models.Snapshot)}
}

func (c *memoryCache) Load(_ context.Context, id string) (*models.Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.items[id]
	return snap, ok, nil
}

func (c *memoryCache) Store(_ context.Context, id string, snap *models.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.storeErr != nil {
		return c.storeErr
	}
	c.items[id] = snap
	return nil
}

func (c *memoryCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.deleted = append(c.deleted, id)
	return nil
}
