package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pglens/internal/config"
	"pglens/internal/database"
	"pglens/internal/handlers"
	"pglens/internal/middlewares"
	"pglens/internal/repositories"
	"pglens/internal/routes"
	"pglens/internal/services"
)

// Server is the HTTP API together with the services behind it.
type Server struct {
	*http.Server

	logger  *slog.Logger
	apps    *services.AppService
	monitor *services.Monitor
	closers []func() error
}

func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{logger: logger}

	exec := database.NewPgExecutor(logger)
	s.apps = services.NewAppService(repositories.NewConfigRepository(cfg.ConfigPath), exec, logger)
	s.closers = append(s.closers, s.apps.Close)

	if err := s.apps.Load(); err != nil {
		_ = s.Cleanup()
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.closers = append(s.closers, rdb.Close)

		// Fail fast with a clear message.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = s.Cleanup()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		s.apps.UseSnapshotCache(repositories.NewRedisRepository(rdb, cfg.SnapshotCacheTTL))
		logger.Info("snapshot cache enabled", "addr", cfg.RedisAddr)
	}

	var history repositories.HistoryRepository = repositories.NewMemoryHistoryRepository(0)
	if cfg.HistoryDatabaseURL != "" {
		gormHistory, err := repositories.OpenGormHistoryRepository(context.Background(), cfg.HistoryDatabaseURL, logger)
		if err != nil {
			_ = s.Cleanup()
			return nil, err
		}
		s.closers = append(s.closers, gormHistory.Close)
		history = gormHistory
	}

	s.monitor = services.NewMonitor(s.apps, services.MonitorConfig{
		Interval:   cfg.MetaPollInterval,
		Retries:    cfg.ConnectRetries,
		RetryDelay: cfg.ConnectRetryDelay,
	}, logger)

	router := NewRouter(logger, cfg.CORSAllowedOrigins, s.apps, history)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// NewRouter wires the handlers for apps onto a gin engine. Deleting a
// connection also clears its entries in history.
func NewRouter(logger *slog.Logger, allowedOrigins []string, apps *services.AppService, history repositories.HistoryRepository) *gin.Engine {
	apps.UseHistory(history)

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsConfig))

	routes.RegisterRoutes(router, apps, routes.Handlers{
		Connection: handlers.NewConnectionHandler(apps),
		Table:      handlers.NewTableHandler(services.NewTableService(apps)),
		Query:      handlers.NewQueryHandler(services.NewQueryService(apps, history, logger)),
		Schema:     handlers.NewSchemaHandler(services.NewSchemaService(apps)),
	})
	return router
}

// StartMonitor polls connections in the background until ctx is done.
func (s *Server) StartMonitor(ctx context.Context) {
	go s.monitor.Run(ctx)
}

// Cleanup releases pools and clients. It does not stop the HTTP listener.
func (s *Server) Cleanup() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
