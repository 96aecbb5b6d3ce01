package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Query history statuses.
const (
	HistorySuccess = "success"
	HistoryError   = "error"
)

// QueryHistory records one executed statement against a connection.
type QueryHistory struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConnectionID    string    `gorm:"type:text;not null;index" json:"connection_id"`
	QueryText       string    `gorm:"type:text;not null" json:"query_text"`
	Params          string    `gorm:"type:text" json:"params,omitempty"` // JSON array
	Status          string    `gorm:"type:text;not null" json:"status"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	RowCount        int       `json:"row_count"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	ExecutedAt      time.Time `gorm:"type:timestamptz;index" json:"executed_at"`
}

func (QueryHistory) TableName() string { return "query_history" }

// Prepare fills the id and timestamp when unset.
func (q *QueryHistory) Prepare() {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.ExecutedAt.IsZero() {
		q.ExecutedAt = time.Now()
	}
}

func (q *QueryHistory) BeforeCreate(tx *gorm.DB) (err error) {
	q.Prepare()
	return
}
