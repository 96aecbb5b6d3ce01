package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"pglens/internal/config"
	"pglens/internal/database"
	"pglens/internal/repositories"
	"pglens/internal/services"
)

type executorFactory func(s *session) database.Executor

// session is everything one command invocation needs. Close releases it.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	apps    *services.AppService
	history repositories.HistoryRepository
	closers []func() error
}

func newSession(opts *rootOptions) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.configPath != "" {
		cfg.ConfigPath = opts.configPath
	}
	if opts.logLevel != "" {
		if cfg.LogLevel, err = config.ParseLevel(opts.logLevel); err != nil {
			return nil, err
		}
	} else if os.Getenv("LOG_LEVEL") == "" {
		// Keep command output readable unless asked otherwise.
		cfg.LogLevel = slog.LevelWarn
	}

	s := &session{cfg: cfg, logger: cfg.NewLogger()}

	exec := opts.newExecutor(s)
	s.apps = services.NewAppService(repositories.NewConfigRepository(cfg.ConfigPath), exec, s.logger)
	s.closers = append(s.closers, s.apps.Close)

	if err := s.apps.Load(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.closers = append(s.closers, rdb.Close)
		s.apps.UseSnapshotCache(repositories.NewRedisRepository(rdb, cfg.SnapshotCacheTTL))
	}

	s.history = repositories.NewMemoryHistoryRepository(0)
	if cfg.HistoryDatabaseURL != "" {
		gormHistory, err := repositories.OpenGormHistoryRepository(context.Background(), cfg.HistoryDatabaseURL, s.logger)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, gormHistory.Close)
		s.history = gormHistory
	}
	s.apps.UseHistory(s.history)

	return s, nil
}

// connect checks the connection and makes sure it has a snapshot, taken from
// the cache when one is available unless refresh is set.
func (s *session) connect(ctx context.Context, id string, refresh bool) (*services.Connection, error) {
	conn, err := s.apps.Get(id)
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	if !refresh {
		found, err := conn.LoadCachedMeta(ctx)
		if err != nil {
			s.logger.Warn("snapshot cache unavailable", "connection", id, "error", err)
		}
		if found {
			s.logger.Debug("using cached snapshot", "connection", id)
			return conn, nil
		}
	}

	if _, err := conn.UpdateMeta(ctx); err != nil {
		return nil, fmt.Errorf("failed to read catalog of %s: %w", id, err)
	}
	return conn, nil
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
