package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

type MonitorConfig struct {
	Interval   time.Duration
	Retries    int
	RetryDelay time.Duration
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   10 * time.Second,
		Retries:    3,
		RetryDelay: time.Second,
	}
}

// Monitor periodically checks every connection and refreshes the metadata
// of those that answer.
type Monitor struct {
	apps   *AppService
	cfg    MonitorConfig
	logger *slog.Logger
}

func NewMonitor(apps *AppService, cfg MonitorConfig, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMonitorConfig().Interval
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &Monitor{apps: apps, cfg: cfg, logger: logger}
}

// Run polls immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.PollOnce(ctx)
		}
	}
}

// PollOnce refreshes all connections concurrently and waits for them.
func (m *Monitor) PollOnce(ctx context.Context) {
	var g errgroup.Group
	for _, conn := range m.apps.List() {
		g.Go(func() error {
			if err := m.Refresh(ctx, conn); err != nil {
				m.logger.Warn("connection poll failed", "connection", conn.ID(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Refresh connects, retrying up to the configured number of attempts, and
// then updates the metadata snapshot.
func (m *Monitor) Refresh(ctx context.Context, conn *Connection) error {
	var err error
	for attempt := 1; attempt <= m.cfg.Retries; attempt++ {
		if err = conn.Connect(ctx); err == nil {
			break
		}
		if attempt == m.cfg.Retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.RetryDelay):
		}
	}

	_, err = conn.UpdateMeta(ctx)
	return err
}
