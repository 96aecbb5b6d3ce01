package services

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"pglens/internal/models"
)

const (
	maxJunctionTableColumns = 6
	minJunctionTableFKs     = 2
)

// SchemaService renders the catalog snapshot of a connection as a graph or
// a Mermaid ER diagram. It issues no queries of its own.
type SchemaService struct {
	apps *AppService
}

func NewSchemaService(apps *AppService) *SchemaService {
	return &SchemaService{apps: apps}
}

// Graph returns the table graph of a connection, optionally limited to one
// schema.
func (s *SchemaService) Graph(connectionID, schema string) (*models.Graph, error) {
	conn, err := s.apps.Get(connectionID)
	if err != nil {
		return nil, err
	}
	return BuildGraph(conn.Snapshot(), schema), nil
}

// VisualizeSchema generates a Mermaid ER diagram for one schema of a
// connection ("public" when empty).
func (s *SchemaService) VisualizeSchema(connectionID, schema string) (string, error) {
	conn, err := s.apps.Get(connectionID)
	if err != nil {
		return "", err
	}
	if schema == "" {
		schema = "public"
	}
	return GenerateSchemaVisualization(conn.Snapshot(), schema), nil
}

// table is the per-table view of a snapshot used by the renderers.
type table struct {
	Schema      string
	Name        string
	Columns     []models.ColumnInfo
	PrimaryKeys []string
	ForeignKeys []models.ForeignKeyInfo
}

func parseTables(snap *models.Snapshot, schema string) []table {
	tables := make([]table, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		if schema != "" && t.Schema != schema {
			continue
		}

		tbl := table{Schema: t.Schema, Name: t.Name, Columns: snap.TableColumns(t.Schema, t.Name)}
		for _, pk := range snap.PrimaryKeys {
			if pk.Schema == t.Schema && pk.Table == t.Name {
				tbl.PrimaryKeys = append(tbl.PrimaryKeys, pk.Column)
			}
		}
		for _, fk := range snap.ForeignKeys {
			if fk.Schema == t.Schema && fk.Table == t.Name {
				tbl.ForeignKeys = append(tbl.ForeignKeys, fk)
			}
		}
		tables = append(tables, tbl)
	}
	return tables
}

// uniqueColumns returns "schema.table.column" for every column that is a
// single-column unique key on its own.
func uniqueColumns(snap *models.Snapshot) map[string]bool {
	unique := make(map[string]bool)
	for _, uk := range snap.UniqueKeys {
		if len(uk.Columns) == 1 {
			unique[uk.Schema+"."+uk.Table+"."+uk.Columns[0]] = true
		}
	}
	return unique
}

// BuildGraph builds one node per table and one edge per foreign key column.
// Self-referencing foreign keys produce no edge.
func BuildGraph(snap *models.Snapshot, schema string) *models.Graph {
	if snap == nil {
		snap = models.EmptySnapshot()
	}
	unique := uniqueColumns(snap)
	tables := parseTables(snap, schema)

	graph := &models.Graph{
		Nodes: make([]models.GraphNode, 0, len(tables)),
		Edges: []models.GraphEdge{},
	}

	for _, t := range tables {
		id := t.Schema + "." + t.Name
		node := models.GraphNode{ID: id, Schema: t.Schema, Table: t.Name, Columns: make([]models.GraphColumn, 0, len(t.Columns))}
		for _, c := range t.Columns {
			node.Columns = append(node.Columns, models.GraphColumn{
				Name:     c.Name,
				Type:     c.Type,
				Nullable: c.Nullable,
				Primary:  slices.Contains(t.PrimaryKeys, c.Name),
				Foreign:  isForeignKey(t.ForeignKeys, c.Name),
				Unique:   unique[id+"."+c.Name],
			})
		}
		graph.Nodes = append(graph.Nodes, node)

		for _, fk := range t.ForeignKeys {
			if fk.ReferencedSchema == fk.Schema && fk.ReferencedTable == fk.Table {
				continue
			}
			graph.Edges = append(graph.Edges, models.GraphEdge{
				ID:     fk.Schema + "." + fk.Table + "." + fk.Name,
				Source: fk.Schema + "." + fk.Table + "." + fk.Column,
				Target: fk.ReferencedSchema + "." + fk.ReferencedTable + "." + fk.ReferencedColumn,
			})
		}
	}

	sort.SliceStable(graph.Edges, func(i, j int) bool {
		return graph.Edges[i].ID < graph.Edges[j].ID
	})
	return graph
}

func buildRelationships(snap *models.Snapshot, tables []table) []models.Relationship {
	var relationships []models.Relationship
	junctionTables := detectJunctionTables(tables)
	unique := uniqueColumns(snap)

	for _, t := range tables {
		// Junction tables become many-to-many edges between the tables they link.
		if junctionTables[t.Name] {
			for i := 0; i < len(t.ForeignKeys); i++ {
				for j := i + 1; j < len(t.ForeignKeys); j++ {
					relationships = append(relationships, models.Relationship{
						FromTable: t.ForeignKeys[i].ReferencedTable,
						ToTable:   t.ForeignKeys[j].ReferencedTable,
						Type:      "}o--o{",
					})
				}
			}
			continue
		}

		for _, fk := range t.ForeignKeys {
			relType := "||--o{"
			if unique[t.Schema+"."+t.Name+"."+fk.Column] {
				relType = "||--||"
			}
			relationships = append(relationships, models.Relationship{
				FromTable: t.Name,
				ToTable:   fk.ReferencedTable,
				Type:      relType,
			})
		}
	}

	return relationships
}

func detectJunctionTables(tables []table) map[string]bool {
	junctionTables := make(map[string]bool)
	for _, t := range tables {
		if len(t.ForeignKeys) < minJunctionTableFKs ||
			len(t.PrimaryKeys) < minJunctionTableFKs ||
			len(t.Columns) > maxJunctionTableColumns {
			continue
		}

		// Every foreign key must be part of the primary key.
		allFKsInPK := true
		for _, fk := range t.ForeignKeys {
			if !slices.Contains(t.PrimaryKeys, fk.Column) {
				allFKsInPK = false
				break
			}
		}
		fkCountInPK := 0
		for _, pk := range t.PrimaryKeys {
			if isForeignKey(t.ForeignKeys, pk) {
				fkCountInPK++
			}
		}
		if allFKsInPK && fkCountInPK >= minJunctionTableFKs {
			junctionTables[t.Name] = true
		}
	}
	return junctionTables
}

func generateMermaid(tables []table, relationships []models.Relationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[string]bool)
		for _, rel := range relationships {
			key := fmt.Sprintf("%s:%s:%s", rel.FromTable, rel.Type, rel.ToTable)
			if seen[key] {
				continue
			}
			seen[key] = true

			// Mermaid requires a label; an empty one hides it.
			fmt.Fprintf(&sb, "    %s %s %s : \"\"\n",
				strings.ToUpper(rel.FromTable),
				rel.Type,
				strings.ToUpper(rel.ToTable))
		}
		sb.WriteString("\n")
	}

	for _, t := range tables {
		fmt.Fprintf(&sb, "    %s {\n", strings.ToUpper(t.Name))

		for _, col := range t.Columns {
			annotations := ""
			if slices.Contains(t.PrimaryKeys, col.Name) {
				annotations = " PK"
			}
			if isForeignKey(t.ForeignKeys, col.Name) {
				annotations += " FK"
			}

			fmt.Fprintf(&sb, "        %s %s%s\n", simplifyDataType(col.Type), col.Name, annotations)
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

func simplifyDataType(dataType string) string {
	dt := strings.ToLower(dataType)

	switch {
	case dt == "integer":
		return "int"
	case strings.HasPrefix(dt, "character varying"):
		return "varchar"
	case strings.HasPrefix(dt, "character"):
		return "char"
	case strings.HasPrefix(dt, "timestamp without time zone"):
		return "timestamp"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "time without time zone"):
		return "time"
	case strings.HasPrefix(dt, "numeric"):
		return "numeric"
	case dt == "double precision":
		return "double"
	case dt == "array", strings.HasPrefix(dt, "array"):
		return "array"
	case dt == "user-defined":
		return "enum"
	default:
		// Mermaid attribute types cannot contain spaces.
		return strings.ReplaceAll(dt, " ", "_")
	}
}

func isForeignKey(fks []models.ForeignKeyInfo, colName string) bool {
	for _, fk := range fks {
		if fk.Column == colName {
			return true
		}
	}
	return false
}

// GenerateSchemaVisualization renders one schema of snap as a Mermaid ER
// diagram.
func GenerateSchemaVisualization(snap *models.Snapshot, schema string) string {
	if snap == nil {
		snap = models.EmptySnapshot()
	}
	tables := parseTables(snap, schema)
	return generateMermaid(tables, buildRelationships(snap, tables))
}
