package repositories

import (
	"context"

	"pglens/internal/database"
	"pglens/internal/models"
)

const tablesQuery = `
	SELECT
		t.table_schema,
		t.table_name
	FROM information_schema.tables t
	WHERE t.table_type = 'BASE TABLE'
		AND t.table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY t.table_schema, t.table_name
`

const columnsQuery = `
	SELECT
		c.table_schema,
		c.table_name,
		c.column_name,
		c.data_type,
		c.is_nullable
	FROM information_schema.columns c
	WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY c.table_schema, c.table_name, c.ordinal_position
`

// keyColumnsQuery serves both primary and unique keys; the constraint type is
// the only parameter.
const keyColumnsQuery = `
	SELECT
		tc.table_schema, tc.table_name, c.column_name, c.data_type, tc.constraint_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.constraint_column_usage AS ccu USING (constraint_schema, constraint_name)
	JOIN information_schema.columns AS c ON c.table_schema = tc.constraint_schema
		AND tc.table_name = c.table_name
		AND ccu.column_name = c.column_name
	WHERE tc.constraint_type = $1
		AND tc.table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, c.ordinal_position
`

const foreignKeysQuery = `
	SELECT
		tc.table_schema,
		tc.constraint_name,
		tc.table_name,
		kcu.column_name,
		ccu.table_schema AS foreign_table_schema,
		ccu.table_name AS foreign_table_name,
		ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.constraint_schema = tc.constraint_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position
`

// CatalogRepository reads table, column and key metadata from the
// information_schema of a browsed database.
type CatalogRepository struct {
	exec database.Executor
}

func NewCatalogRepository(exec database.Executor) *CatalogRepository {
	return &CatalogRepository{exec: exec}
}

func (r *CatalogRepository) run(ctx context.Context, args database.ConnectionArgs, op, query string, params ...any) ([]database.Row, error) {
	result, err := r.exec.Execute(ctx, args, query, params...)
	if err != nil {
		return nil, &database.QueryError{Op: op, SQL: query, Err: err}
	}
	return result.Rows, nil
}

// GetTables returns all base tables outside the system schemas.
func (r *CatalogRepository) GetTables(ctx context.Context, args database.ConnectionArgs) ([]models.TableInfo, error) {
	rows, err := r.run(ctx, args, "tables", tablesQuery)
	if err != nil {
		return nil, err
	}

	tables := make([]models.TableInfo, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, models.TableInfo{
			Schema: row.String("table_schema"),
			Name:   row.String("table_name"),
		})
	}
	return tables, nil
}

// GetColumns returns all columns in user schemas, in declaration order.
func (r *CatalogRepository) GetColumns(ctx context.Context, args database.ConnectionArgs) ([]models.ColumnInfo, error) {
	rows, err := r.run(ctx, args, "columns", columnsQuery)
	if err != nil {
		return nil, err
	}

	columns := make([]models.ColumnInfo, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, models.ColumnInfo{
			Schema:   row.String("table_schema"),
			Table:    row.String("table_name"),
			Name:     row.String("column_name"),
			Type:     row.String("data_type"),
			Nullable: row.String("is_nullable") == "YES",
		})
	}
	return columns, nil
}

// GetPrimaryKeys returns one entry per primary key column.
func (r *CatalogRepository) GetPrimaryKeys(ctx context.Context, args database.ConnectionArgs) ([]models.PrimaryKeyInfo, error) {
	rows, err := r.run(ctx, args, "primary keys", keyColumnsQuery, "PRIMARY KEY")
	if err != nil {
		return nil, err
	}

	pks := make([]models.PrimaryKeyInfo, 0, len(rows))
	for _, row := range rows {
		pks = append(pks, models.PrimaryKeyInfo{
			Schema: row.String("table_schema"),
			Table:  row.String("table_name"),
			Name:   row.String("constraint_name"),
			Column: row.String("column_name"),
			Type:   row.String("data_type"),
		})
	}
	return pks, nil
}

// GetUniqueKeys returns unique constraints with their columns grouped.
func (r *CatalogRepository) GetUniqueKeys(ctx context.Context, args database.ConnectionArgs) ([]models.UniqueKeyInfo, error) {
	rows, err := r.run(ctx, args, "unique keys", keyColumnsQuery, "UNIQUE")
	if err != nil {
		return nil, err
	}
	return groupUniqueKeys(rows), nil
}

type constraintKey struct {
	schema, table, name string
}

// groupUniqueKeys folds one-row-per-column results into one record per
// (schema, table, constraint), in order of first appearance.
func groupUniqueKeys(rows []database.Row) []models.UniqueKeyInfo {
	results := []models.UniqueKeyInfo{}
	index := make(map[constraintKey]int)

	for _, row := range rows {
		key := constraintKey{
			schema: row.String("table_schema"),
			table:  row.String("table_name"),
			name:   row.String("constraint_name"),
		}
		column := row.String("column_name")

		if i, ok := index[key]; ok {
			results[i].Columns = append(results[i].Columns, column)
			continue
		}

		index[key] = len(results)
		results = append(results, models.UniqueKeyInfo{
			Schema:  key.schema,
			Table:   key.table,
			Name:    key.name,
			Columns: []string{column},
		})
	}

	return results
}

// GetForeignKeys returns one entry per foreign key column.
func (r *CatalogRepository) GetForeignKeys(ctx context.Context, args database.ConnectionArgs) ([]models.ForeignKeyInfo, error) {
	rows, err := r.run(ctx, args, "foreign keys", foreignKeysQuery)
	if err != nil {
		return nil, err
	}

	fks := make([]models.ForeignKeyInfo, 0, len(rows))
	for _, row := range rows {
		fks = append(fks, models.ForeignKeyInfo{
			Name:             row.String("constraint_name"),
			Schema:           row.String("table_schema"),
			Table:            row.String("table_name"),
			Column:           row.String("column_name"),
			ReferencedSchema: row.String("foreign_table_schema"),
			ReferencedTable:  row.String("foreign_table_name"),
			ReferencedColumn: row.String("foreign_column_name"),
		})
	}
	return fks, nil
}
