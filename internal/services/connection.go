package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pglens/internal/database"
	"pglens/internal/models"
	"pglens/internal/repositories"
)

var ErrQueryNotFound = errors.New("saved query not found")

// Connection is one configured database: its credentials, saved queries, the
// catalog snapshot of its last successful refresh and its lifecycle status.
type Connection struct {
	exec    database.Executor
	catalog *repositories.CatalogRepository
	cache   repositories.SnapshotCache
	logger  *slog.Logger

	snapshot atomic.Pointer[models.Snapshot]

	mu           sync.RWMutex
	config       models.ConnectionConfigFile
	status       models.ConnectionStatus
	listeners    map[int]func(models.StatusChange)
	nextListener int
}

// NewConnection creates an idle connection with an empty snapshot. A nil
// logger discards output.
func NewConnection(cfg models.ConnectionConfigFile, exec database.Executor, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg = cfg.Clone()
	cfg.Normalize()

	c := &Connection{
		exec:      exec,
		catalog:   repositories.NewCatalogRepository(exec),
		logger:    logger.With("connection", cfg.ID),
		config:    cfg,
		status:    models.StatusIdle,
		listeners: make(map[int]func(models.StatusChange)),
	}
	c.snapshot.Store(models.EmptySnapshot())
	return c
}

// UseSnapshotCache makes UpdateMeta publish snapshots to cache and enables
// LoadCachedMeta.
func (c *Connection) UseSnapshotCache(cache repositories.SnapshotCache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = cache
}

func (c *Connection) snapshotCache() repositories.SnapshotCache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

func (c *Connection) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.ID
}

func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Name
}

func (c *Connection) Order() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Order
}

func (c *Connection) Args() database.ConnectionArgs {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Connection
}

// Config returns a copy of the persisted form of the connection.
func (c *Connection) Config() models.ConnectionConfigFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Clone()
}

// Snapshot returns the catalog snapshot of the last successful refresh.
func (c *Connection) Snapshot() *models.Snapshot {
	return c.snapshot.Load()
}

func (c *Connection) Status() models.ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Subscribe registers fn for status changes and returns a function that
// removes it. fn runs synchronously on the goroutine changing the status.
func (c *Connection) Subscribe(fn func(models.StatusChange)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Connection) setStatus(to models.ConnectionStatus, err error) {
	c.mu.Lock()
	change := models.StatusChange{ConnectionID: c.config.ID, From: c.status, To: to, Err: err}
	c.status = to
	listeners := make([]func(models.StatusChange), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}

// Connect runs the sanity query. The status moves to Connecting and then to
// Connected, or to Failed in which case the error is returned.
func (c *Connection) Connect(ctx context.Context) error {
	args := c.Args()
	c.setStatus(models.StatusConnecting, nil)

	if _, err := database.CheckConnection(ctx, c.exec, args); err != nil {
		var connErr *database.ConnectivityError
		if !errors.As(err, &connErr) {
			err = &database.ConnectivityError{Host: args.Host, Port: args.Port, Database: args.Database, Err: err}
		}
		c.logger.Warn("connection check failed", "target", args.Redacted(), "error", err)
		c.setStatus(models.StatusFailed, err)
		return err
	}

	c.setStatus(models.StatusConnected, nil)
	return nil
}

// markUnreachable moves the connection to Failed when err shows the server
// could not be reached. Statement errors leave the status alone.
func (c *Connection) markUnreachable(err error) {
	var connErr *database.ConnectivityError
	if errors.As(err, &connErr) && c.Status() != models.StatusFailed {
		c.setStatus(models.StatusFailed, connErr)
	}
}

// UpdateMeta runs the five catalog probes concurrently and publishes their
// results as a new snapshot only when all of them succeed. On failure the
// previous snapshot stays in place.
func (c *Connection) UpdateMeta(ctx context.Context) (*models.Snapshot, error) {
	args := c.Args()
	next := &models.Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		next.Tables, err = c.catalog.GetTables(gctx, args)
		return err
	})
	g.Go(func() (err error) {
		next.Columns, err = c.catalog.GetColumns(gctx, args)
		return err
	})
	g.Go(func() (err error) {
		next.ForeignKeys, err = c.catalog.GetForeignKeys(gctx, args)
		return err
	})
	g.Go(func() (err error) {
		next.PrimaryKeys, err = c.catalog.GetPrimaryKeys(gctx, args)
		return err
	})
	g.Go(func() (err error) {
		next.UniqueKeys, err = c.catalog.GetUniqueKeys(gctx, args)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn("metadata refresh failed", "error", err)
		c.markUnreachable(err)
		return nil, err
	}

	c.snapshot.Store(next)
	c.logger.Debug("metadata refreshed",
		"tables", len(next.Tables),
		"columns", len(next.Columns),
		"foreign_keys", len(next.ForeignKeys),
	)

	if cache := c.snapshotCache(); cache != nil {
		if err := cache.Store(ctx, c.ID(), next); err != nil {
			c.logger.Warn("failed to cache snapshot", "error", err)
		}
	}
	return next, nil
}

// LoadCachedMeta installs the cached snapshot, if any, and reports whether
// one was found.
func (c *Connection) LoadCachedMeta(ctx context.Context) (bool, error) {
	cache := c.snapshotCache()
	if cache == nil {
		return false, nil
	}
	snap, found, err := cache.Load(ctx, c.ID())
	if err != nil || !found {
		return false, err
	}
	c.snapshot.Store(snap)
	return true, nil
}

// ExecuteSQL runs sql against the connection.
func (c *Connection) ExecuteSQL(ctx context.Context, sql string, params ...any) (*database.QueryResult, error) {
	result, err := c.exec.Execute(ctx, c.Args(), sql, params...)
	if err != nil {
		c.markUnreachable(err)
		return nil, database.StatementError(sql, err)
	}
	return result, nil
}

// GetTableData browses schema.table using the current snapshot.
func (c *Connection) GetTableData(ctx context.Context, table, schema string, resolveForeignKeys bool) (*models.TableData, error) {
	opts := DefaultTableQueryOptions()
	opts.ResolveForeignKeys = resolveForeignKeys
	return c.BrowseTable(ctx, schema, table, opts)
}

// BrowseTable is GetTableData with explicit synthesizer options.
func (c *Connection) BrowseTable(ctx context.Context, schema, table string, opts TableQueryOptions) (*models.TableData, error) {
	q := BuildTableQuery(c.Snapshot(), schema, table, opts)
	if len(q.Unresolved) > 0 {
		c.logger.Debug("foreign keys reference tables outside the snapshot",
			"table", schema+"."+table, "columns", q.Unresolved)
	}

	result, err := c.ExecuteSQL(ctx, q.SQL)
	if err != nil {
		return nil, err
	}

	return &models.TableData{
		Rows:    result.Rows,
		SQL:     q.SQL,
		ColInfo: q.ColInfo,
		Query:   result,
	}, nil
}

// Queries returns the saved queries.
func (c *Connection) Queries() []models.Query {
	return c.Config().Queries
}

// SaveQuery inserts q, or replaces the saved query with the same id. A query
// without id gets a new one.
func (c *Connection) SaveQuery(q models.Query) models.Query {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.TagIDs == nil {
		q.TagIDs = []string{}
	}
	if q.Params == nil {
		q.Params = []models.QueryParam{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.config.Queries {
		if c.config.Queries[i].ID == q.ID {
			c.config.Queries[i] = q
			return q
		}
	}
	c.config.Queries = append(c.config.Queries, q)
	return q
}

func (c *Connection) RemoveQuery(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.config.Queries {
		if c.config.Queries[i].ID == id {
			c.config.Queries = append(c.config.Queries[:i], c.config.Queries[i+1:]...)
			return nil
		}
	}
	return ErrQueryNotFound
}

func (c *Connection) Query(id string) (models.Query, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.config.Queries {
		if q.ID == id {
			return q, true
		}
	}
	return models.Query{}, false
}

func (c *Connection) Tag(id string) (models.TagInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.config.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return models.TagInfo{}, false
}
