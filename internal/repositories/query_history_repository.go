package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pglens/internal/models"
)

const defaultHistoryLimit = 100

// HistoryRepository stores executed statements per connection.
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.QueryHistory) error
	ListByConnection(ctx context.Context, connectionID string, limit int) ([]models.QueryHistory, error)
	DeleteByConnection(ctx context.Context, connectionID string) error
}

// MemoryHistoryRepository keeps the most recent entries of every connection
// in memory.
type MemoryHistoryRepository struct {
	mu      sync.Mutex
	max     int
	entries map[string][]models.QueryHistory
}

// NewMemoryHistoryRepository keeps at most max entries per connection
// (500 when max <= 0).
func NewMemoryHistoryRepository(max int) *MemoryHistoryRepository {
	if max <= 0 {
		max = 500
	}
	return &MemoryHistoryRepository{
		max:     max,
		entries: make(map[string][]models.QueryHistory),
	}
}

func (r *MemoryHistoryRepository) Create(_ context.Context, entry *models.QueryHistory) error {
	entry.Prepare()

	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.entries[entry.ConnectionID], *entry)
	if len(list) > r.max {
		list = list[len(list)-r.max:]
	}
	r.entries[entry.ConnectionID] = list
	return nil
}

// ListByConnection returns newest entries first.
func (r *MemoryHistoryRepository) ListByConnection(_ context.Context, connectionID string, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	r.mu.Lock()
	list := append([]models.QueryHistory(nil), r.entries[connectionID]...)
	r.mu.Unlock()

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ExecutedAt.After(list[j].ExecutedAt)
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *MemoryHistoryRepository) DeleteByConnection(_ context.Context, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connectionID)
	return nil
}

// GormHistoryRepository stores history in a Postgres table through gorm.
type GormHistoryRepository struct {
	db *gorm.DB
}

func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// OpenGormHistoryRepository connects to dsn and migrates the history table.
func OpenGormHistoryRepository(ctx context.Context, dsn string, log *slog.Logger) (*GormHistoryRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if err := RunMigrations(ctx, db, log); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to migrate query history: %w", err)
	}
	return NewGormHistoryRepository(db), nil
}

func (r *GormHistoryRepository) Create(ctx context.Context, entry *models.QueryHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormHistoryRepository) ListByConnection(ctx context.Context, connectionID string, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var entries []models.QueryHistory
	err := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormHistoryRepository) DeleteByConnection(ctx context.Context, connectionID string) error {
	return r.db.WithContext(ctx).Where("connection_id = ?", connectionID).Delete(&models.QueryHistory{}).Error
}

// Close releases the underlying connection pool.
func (r *GormHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
