package models

import "pglens/internal/database"

// TableDataColInfo describes how a browsed column was projected.
type TableDataColInfo struct {
	Type      string `json:"type"`
	IsForeign bool   `json:"is_foreign"`
}

// TableData is the result of browsing one table.
type TableData struct {
	Rows    []database.Row              `json:"rows"`
	SQL     string                      `json:"sql"`
	ColInfo map[string]TableDataColInfo `json:"col_info"`
	Query   *database.QueryResult       `json:"query"`
}
