package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"pglens/internal/database"
	"pglens/internal/models"
	"pglens/internal/repositories"
)

var (
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrDuplicateConnection = errors.New("connection id already exists")
	ErrInvalidConnection   = errors.New("invalid connection")
)

// AppService owns the set of configured connections for the lifetime of the
// process.
type AppService struct {
	repo   *repositories.ConfigRepository
	exec   database.Executor
	cache   repositories.SnapshotCache
	history repositories.HistoryRepository
	logger  *slog.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewAppService(repo *repositories.ConfigRepository, exec database.Executor, logger *slog.Logger) *AppService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AppService{
		repo:        repo,
		exec:        exec,
		logger:      logger,
		connections: make(map[string]*Connection),
	}
}

// UseSnapshotCache attaches cache to every connection, current and future.
func (s *AppService) UseSnapshotCache(cache repositories.SnapshotCache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = cache
	for _, c := range s.connections {
		c.UseSnapshotCache(cache)
	}
}

// UseHistory makes removing a connection drop its query history as well.
func (s *AppService) UseHistory(history repositories.HistoryRepository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
}

func (s *AppService) newConnection(cfg models.ConnectionConfigFile) *Connection {
	conn := NewConnection(cfg, s.exec, s.logger)
	if s.cache != nil {
		conn.UseSnapshotCache(s.cache)
	}
	return conn
}

// Load replaces the connection set with the contents of the config file.
func (s *AppService) Load() error {
	cfg, err := s.repo.Read()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.connections = make(map[string]*Connection, len(cfg.Connections))
	for _, c := range cfg.Connections {
		s.connections[c.ID] = s.newConnection(c)
	}
	s.logger.Info("connections loaded", "count", len(s.connections), "path", s.repo.Path())
	return nil
}

// Save writes the current connection set, including saved queries, to the
// config file.
func (s *AppService) Save() error {
	conns := s.List()
	cfg := &models.AppConfig{Connections: make([]models.ConnectionConfigFile, 0, len(conns))}
	for _, c := range conns {
		cfg.Connections = append(cfg.Connections, c.Config())
	}
	if err := s.repo.Write(cfg); err != nil {
		return err
	}
	s.logger.Debug("connections saved", "count", len(conns))
	return nil
}

// Add registers a new connection. The id must be unused.
func (s *AppService) Add(cfg models.ConnectionConfigFile) (*Connection, error) {
	cfg.Normalize()
	if err := s.repo.ValidateConnection(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.connections[cfg.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateConnection, cfg.ID)
	}
	conn := s.newConnection(cfg)
	s.connections[cfg.ID] = conn
	return conn, nil
}

// Create adds a connection and persists the config file. When the file cannot
// be written the connection is dropped again.
func (s *AppService) Create(cfg models.ConnectionConfigFile) (*Connection, error) {
	conn, err := s.Add(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Save(); err != nil {
		s.mu.Lock()
		if s.connections[conn.ID()] == conn {
			delete(s.connections, conn.ID())
		}
		s.mu.Unlock()
		return nil, err
	}
	return conn, nil
}

type forgetter interface {
	Forget(args database.ConnectionArgs) error
}

// Delete drops a connection and persists the config file, then releases its
// pooled handles, cached snapshot and query history. When the file cannot be
// written the connection is put back and nothing is released.
func (s *AppService) Delete(ctx context.Context, id string) error {
	conn, err := s.detach(id)
	if err != nil {
		return err
	}
	if err := s.Save(); err != nil {
		s.mu.Lock()
		if _, taken := s.connections[id]; !taken {
			s.connections[id] = conn
		}
		s.mu.Unlock()
		return err
	}
	s.release(ctx, conn)
	return nil
}

func (s *AppService) detach(id string) (*Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	delete(s.connections, id)
	return conn, nil
}

// release frees what a detached connection held. Pools are keyed by DSN, so a
// pool still used by another connection stays open.
func (s *AppService) release(ctx context.Context, conn *Connection) {
	id := conn.ID()
	dsn := conn.Args().DSN()

	s.mu.RLock()
	shared := false
	for _, other := range s.connections {
		if other.Args().DSN() == dsn {
			shared = true
			break
		}
	}
	cache, history := s.cache, s.history
	s.mu.RUnlock()

	if f, ok := s.exec.(forgetter); ok && !shared {
		if err := f.Forget(conn.Args()); err != nil {
			s.logger.Warn("failed to close pool", "connection", id, "error", err)
		}
	}
	if cache != nil {
		if err := cache.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to drop cached snapshot", "connection", id, "error", err)
		}
	}
	if history != nil {
		if err := history.DeleteByConnection(ctx, id); err != nil {
			s.logger.Warn("failed to drop query history", "connection", id, "error", err)
		}
	}
}

func (s *AppService) Get(id string) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	return conn, nil
}

// List returns the connections sorted by order, then name.
func (s *AppService) List() []*Connection {
	s.mu.RLock()
	list := make([]*Connection, 0, len(s.connections))
	for _, c := range s.connections {
		list = append(list, c)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].Order() != list[j].Order() {
			return list[i].Order() < list[j].Order()
		}
		if list[i].Name() != list[j].Name() {
			return list[i].Name() < list[j].Name()
		}
		return list[i].ID() < list[j].ID()
	})
	return list
}

// Close releases the executor when it holds resources.
func (s *AppService) Close() error {
	if closer, ok := s.exec.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
