package models

import "pglens/internal/database"

// QueryParam is a named parameter of a saved query.
type QueryParam struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Query is a saved SQL statement attached to a connection.
type Query struct {
	ID          string       `json:"id"`
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Order       int          `json:"order"`
	TagIDs      []string     `json:"tagIds"`
	Query       string       `json:"query"`
	Params      []QueryParam `json:"params" validate:"dive"`
}

type TagInfo struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// ConnectionConfigFile is the persisted form of one configured connection.
type ConnectionConfigFile struct {
	ID         string                  `json:"id" validate:"required"`
	Name       string                  `json:"name" validate:"required"`
	Order      int                     `json:"order"`
	Connection database.ConnectionArgs `json:"connection"`
	Queries    []Query                 `json:"queries" validate:"dive"`
	Tags       []TagInfo               `json:"tags" validate:"dive"`
}

// Normalize replaces absent lists with empty ones.
func (c *ConnectionConfigFile) Normalize() {
	if c.Queries == nil {
		c.Queries = []Query{}
	}
	if c.Tags == nil {
		c.Tags = []TagInfo{}
	}
	for i := range c.Queries {
		if c.Queries[i].TagIDs == nil {
			c.Queries[i].TagIDs = []string{}
		}
		if c.Queries[i].Params == nil {
			c.Queries[i].Params = []QueryParam{}
		}
	}
}

// Clone returns a deep copy.
func (c ConnectionConfigFile) Clone() ConnectionConfigFile {
	out := c
	out.Queries = make([]Query, len(c.Queries))
	for i, q := range c.Queries {
		q.TagIDs = append([]string{}, q.TagIDs...)
		q.Params = append([]QueryParam{}, q.Params...)
		out.Queries[i] = q
	}
	out.Tags = append([]TagInfo{}, c.Tags...)
	return out
}

// AppConfig is the whole config.json document.
type AppConfig struct {
	Connections []ConnectionConfigFile `json:"connections" validate:"dive"`
}
