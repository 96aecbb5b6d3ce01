package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// historyMigrations are applied in order on every start; each one must be
// safe to run again.
var historyMigrations = []string{
	createQueryHistoryTable,
	addQueryHistoryParams,
	createQueryHistoryIndexes,
}

// RunMigrations brings the history schema up to date.
func RunMigrations(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	for i, migration := range historyMigrations {
		log.Debug("running migration", "step", i+1, "total", len(historyMigrations))
		if err := db.WithContext(ctx).Exec(migration).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Debug("history migrations completed")
	return nil
}

const createQueryHistoryTable = `
CREATE TABLE IF NOT EXISTS query_history (
  id UUID PRIMARY KEY,
  connection_id TEXT NOT NULL,
  query_text TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT,
  row_count BIGINT NOT NULL DEFAULT 0,
  execution_time_ms BIGINT NOT NULL DEFAULT 0,
  executed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const addQueryHistoryParams = `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM information_schema.columns
    WHERE table_name = 'query_history' AND column_name = 'params'
  ) THEN
    ALTER TABLE query_history ADD COLUMN params TEXT;
  END IF;
END$$;
`

const createQueryHistoryIndexes = `
CREATE INDEX IF NOT EXISTS idx_query_history_connection_id ON query_history(connection_id);
CREATE INDEX IF NOT EXISTS idx_query_history_executed_at ON query_history(executed_at);
`
