package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConnectivityError reports that a connection could not be established or
// that the sanity check against it failed.
type ConnectivityError struct {
	Host     string
	Port     int
	Database string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach postgres at %s:%d/%s: %v", e.Host, e.Port, e.Database, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// QueryError reports a failed catalog probe or a failed statement.
type QueryError struct {
	Op  string
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("query failed: %v", e.Err)
	}
	return fmt.Sprintf("failed to get %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// UnknownError carries a failure the executor could not classify. Cause is the
// original value, which is not necessarily an error (recovered panics).
type UnknownError struct {
	Message string
	Cause   any
}

func (e *UnknownError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *UnknownError) Unwrap() error {
	err, _ := e.Cause.(error)
	return err
}

// classifyError maps a driver error onto the error taxonomy used by callers.
func classifyError(args ConnectionArgs, err error) error {
	if err == nil {
		return nil
	}

	var (
		pgErr      *pgconn.PgError
		connectErr *pgconn.ConnectError
		netErr     net.Error
		connErr    *ConnectivityError
		queryErr   *QueryError
		unknownErr *UnknownError
	)

	switch {
	case errors.As(err, &connErr), errors.As(err, &queryErr), errors.As(err, &unknownErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &pgErr):
		return err
	case errors.As(err, &connectErr), errors.As(err, &netErr), errors.Is(err, driver.ErrBadConn):
		return &ConnectivityError{Host: args.Host, Port: args.Port, Database: args.Database, Err: err}
	default:
		return &UnknownError{Message: "unknown error", Cause: err}
	}
}

// StatementError wraps a server-side failure of sql in a QueryError. Other
// errors (connectivity, context, unknown) are returned unchanged.
func StatementError(sql string, err error) error {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) {
		return err
	}
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return err
	}
	return &QueryError{SQL: sql, Err: err}
}
