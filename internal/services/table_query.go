package services

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"pglens/internal/models"
)

// BrowseRowLimit caps every generated browse statement.
const BrowseRowLimit = 100

// labelHints are the substrings that make a referenced column usable as a
// human-readable label for a foreign key.
var labelHints = []string{"name", "text", "type"}

// TableQueryOptions controls BuildTableQuery.
type TableQueryOptions struct {
	// ResolveForeignKeys joins referenced tables and projects their label
	// column instead of the raw key.
	ResolveForeignKeys bool
	// StrictQuoting doubles embedded double quotes in identifiers. Without it
	// identifiers are only wrapped in double quotes.
	StrictQuoting bool
}

func DefaultTableQueryOptions() TableQueryOptions {
	return TableQueryOptions{ResolveForeignKeys: true}
}

// TableQuery is a generated browse statement.
type TableQuery struct {
	SQL     string
	ColInfo map[string]models.TableDataColInfo
	Joins   []string
	// Unresolved lists foreign key columns whose referenced table is not in
	// the snapshot. They are projected as plain columns.
	Unresolved []string
}

// BuildTableQuery generates the SELECT used to browse schema.table from snap.
// It performs no I/O and returns identical output for identical input.
func BuildTableQuery(snap *models.Snapshot, schema, table string, opts TableQueryOptions) TableQuery {
	if snap == nil {
		snap = models.EmptySnapshot()
	}
	quote := quoteIdent
	if opts.StrictQuoting {
		quote = sanitizeIdent
	}

	columns := snap.TableColumns(schema, table)

	q := TableQuery{ColInfo: make(map[string]models.TableDataColInfo, len(columns))}
	selects := make([]string, 0, len(columns))
	usedAliases := make(map[string]bool)

	for _, column := range columns {
		source, name, alias := table, column.Name, column.Name
		info := models.TableDataColInfo{Type: column.Type}

		if fk, ok := snap.ForeignKeyFor(schema, table, column.Name); ok && opts.ResolveForeignKeys {
			referenced := snap.TableColumns(fk.ReferencedSchema, fk.ReferencedTable)
			if len(referenced) == 0 {
				q.Unresolved = append(q.Unresolved, column.Name)
			}

			if label, found := findLabelColumn(referenced); found {
				refAlias := joinAlias(usedAliases, fk.ReferencedTable, table, column.Name)

				q.Joins = append(q.Joins, "LEFT JOIN "+
					quote(fk.ReferencedSchema)+"."+quote(fk.ReferencedTable)+" "+quote(refAlias)+
					" ON "+quote(table)+"."+quote(column.Name)+" = "+quote(refAlias)+"."+quote(fk.ReferencedColumn))

				source = refAlias
				name = label.Name
				alias = column.Name + "_" + refAlias + "_name"
				info = models.TableDataColInfo{Type: label.Type, IsForeign: true}
			}
		}

		selects = append(selects, quote(source)+"."+quote(name)+" AS "+quote(alias))
		q.ColInfo[column.Name] = info
	}

	if len(selects) == 0 {
		selects = append(selects, "*")
	}

	parts := []string{"SELECT", strings.Join(selects, ", "), "FROM", quote(table)}
	parts = append(parts, q.Joins...)
	parts = append(parts, "LIMIT", strconv.Itoa(BrowseRowLimit))
	q.SQL = strings.Join(parts, " ")
	return q
}

// findLabelColumn returns the first column, in declaration order, whose name
// contains one of labelHints.
func findLabelColumn(columns []models.ColumnInfo) (models.ColumnInfo, bool) {
	for _, c := range columns {
		lower := strings.ToLower(strings.TrimSpace(c.Name))
		for _, hint := range labelHints {
			if strings.Contains(lower, hint) {
				return c, true
			}
		}
	}
	return models.ColumnInfo{}, false
}

// joinAlias returns "<referencedTable>_<table>" for the first join to a
// referenced table. Later joins that would reuse an alias get the source
// column appended, and a counter if that is taken as well.
func joinAlias(used map[string]bool, referencedTable, table, column string) string {
	alias := referencedTable + "_" + table
	if used[alias] {
		alias += "_" + column
		for base, n := alias, 2; used[alias]; n++ {
			alias = base + "_" + strconv.Itoa(n)
		}
	}
	used[alias] = true
	return alias
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func sanitizeIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
