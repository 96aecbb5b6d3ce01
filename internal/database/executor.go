// Package database holds the SQL executor used by everything that talks to a
// browsed Postgres server: connection arguments, typed result rows, value
// normalisation and error classification.
package database

import (
	"context"
	"fmt"
	"net/url"
)

// SanityQuery is the fixed statement used to check a connection.
const SanityQuery = "SELECT 1 AS sanity"

// ConnectionArgs are the credentials of one browsed database.
type ConnectionArgs struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required,min=1,max=65535"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password"`
	Database string `json:"database" validate:"required"`
}

// DSN builds a postgres:// URL with escaped user info.
func (a ConnectionArgs) DSN() string {
	userInfo := url.UserPassword(a.User, a.Password)
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=disable",
		userInfo.String(),
		a.Host,
		a.Port,
		url.PathEscape(a.Database),
	)
}

// Redacted is the DSN with the password masked, for logs.
func (a ConnectionArgs) Redacted() string {
	return fmt.Sprintf("postgres://%s:***@%s:%d/%s", a.User, a.Host, a.Port, a.Database)
}

// ColumnMeta describes one result column.
type ColumnMeta struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	OrderIdx int    `json:"order_idx"`
}

// QueryResult is what an Executor hands back for one statement.
type QueryResult struct {
	Columns []ColumnMeta `json:"columns"`
	Rows    []Row        `json:"rows"`
	SQL     string       `json:"sql"`
	Params  []any        `json:"params"`
}

// Executor runs parameterized SQL against the database described by args.
type Executor interface {
	Execute(ctx context.Context, args ConnectionArgs, sql string, params ...any) (*QueryResult, error)
}

// CheckConnection runs the sanity query and reports whether it returned a row.
func CheckConnection(ctx context.Context, exec Executor, args ConnectionArgs) (bool, error) {
	result, err := exec.Execute(ctx, args, SanityQuery)
	if err != nil {
		return false, err
	}
	return len(result.Rows) > 0, nil
}
