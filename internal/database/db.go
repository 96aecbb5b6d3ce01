package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PgExecutor executes SQL through the pgx database/sql driver. It keeps one
// pool per DSN so repeated calls against the same credentials reuse
// connections.
type PgExecutor struct {
	mu     sync.Mutex
	pools  map[string]*sql.DB
	open   func(dsn string) (*sql.DB, error)
	logger *slog.Logger
}

// NewPgExecutor creates an executor. If logger is nil, a discard logger is used.
func NewPgExecutor(logger *slog.Logger) *PgExecutor {
	return newPgExecutor(openPool, logger)
}

func newPgExecutor(open func(dsn string) (*sql.DB, error), logger *slog.Logger) *PgExecutor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PgExecutor{
		pools:  make(map[string]*sql.DB),
		open:   open,
		logger: logger,
	}
}

func openPool(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return db, nil
}

func (e *PgExecutor) pool(args ConnectionArgs) (*sql.DB, error) {
	dsn := args.DSN()

	e.mu.Lock()
	defer e.mu.Unlock()

	if db, ok := e.pools[dsn]; ok {
		return db, nil
	}

	db, err := e.open(dsn)
	if err != nil {
		return nil, &ConnectivityError{Host: args.Host, Port: args.Port, Database: args.Database, Err: err}
	}
	e.pools[dsn] = db
	e.logger.Debug("opened connection pool", slog.String("dsn", args.Redacted()))
	return db, nil
}

// Execute runs sqlStr with params and collects every row.
func (e *PgExecutor) Execute(ctx context.Context, args ConnectionArgs, sqlStr string, params ...any) (result *QueryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &UnknownError{Message: "unknown error", Cause: r}
		}
	}()

	if params == nil {
		params = []any{}
	}

	db, err := e.pool(args)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err = e.query(ctx, db, sqlStr, params)
	elapsed := time.Since(start)
	if err != nil {
		err = classifyError(args, err)
		e.logger.Warn("sql failed",
			slog.String("sql", sqlStr),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return nil, err
	}

	e.logger.Debug("sql executed",
		slog.String("sql", sqlStr),
		slog.Int("rows", len(result.Rows)),
		slog.Duration("elapsed", elapsed))
	return result, nil
}

func (e *PgExecutor) query(ctx context.Context, db *sql.DB, sqlStr string, params []any) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnMeta, len(colTypes))
	names := make([]string, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = ColumnMeta{
			Name:     ct.Name(),
			Type:     strings.ToLower(ct.DatabaseTypeName()),
			OrderIdx: i,
		}
		names[i] = ct.Name()
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    []Row{},
		SQL:     sqlStr,
		Params:  params,
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, col := range columns {
			values[i] = normalizeValue(col.Type, values[i])
		}
		result.Rows = append(result.Rows, NewRow(names, values))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Forget closes and drops the pool for args, if any.
func (e *PgExecutor) Forget(args ConnectionArgs) error {
	dsn := args.DSN()

	e.mu.Lock()
	db, ok := e.pools[dsn]
	delete(e.pools, dsn)
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return db.Close()
}

// Close closes every pool.
func (e *PgExecutor) Close() error {
	e.mu.Lock()
	pools := e.pools
	e.pools = make(map[string]*sql.DB)
	e.mu.Unlock()

	var errs []error
	for _, db := range pools {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	e.logger.Debug("database connection pools closed", slog.Int("count", len(pools)))
	return nil
}
