package models

type GraphColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Primary  bool   `json:"primary"`
	Foreign  bool   `json:"foreign"`
	Unique   bool   `json:"unique"`
}

type GraphNode struct {
	ID      string        `json:"id"`
	Schema  string        `json:"schema"`
	Table   string        `json:"table"`
	Columns []GraphColumn `json:"columns"`
}

// GraphEdge links a foreign key column to the column it references. Source
// and Target are "schema.table.column".
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Relationship is an ER diagram edge between two tables.
type Relationship struct {
	FromTable string
	ToTable   string
	Type      string // "||--o{", "||--||", etc.
}
