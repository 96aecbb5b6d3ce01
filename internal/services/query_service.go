package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"pglens/internal/database"
	"pglens/internal/models"
	"pglens/internal/repositories"
)

var ErrEmptyQuery = errors.New("query cannot be empty")

var commentPattern = regexp.MustCompile(`--.*|/\*[\s\S]*?\*/`)

type QueryService struct {
	apps    *AppService
	history repositories.HistoryRepository
	logger  *slog.Logger
}

func NewQueryService(apps *AppService, history repositories.HistoryRepository, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryService{apps: apps, history: history, logger: logger}
}

type ExecuteQueryRequest struct {
	SQL    string `json:"sql" binding:"required"`
	Params []any  `json:"params"`
}

type QueryExecution struct {
	Result          *database.QueryResult `json:"result"`
	HistoryID       uuid.UUID             `json:"history_id"`
	RowCount        int                   `json:"row_count"`
	ExecutionTimeMs int64                 `json:"execution_time_ms"`
}

// ValidateSQLQuery rejects statements that are empty once comments are
// stripped.
func ValidateSQLQuery(query string) error {
	stripped := strings.TrimSpace(commentPattern.ReplaceAllString(query, ""))
	if stripped == "" {
		return ErrEmptyQuery
	}
	return nil
}

// Execute runs an ad-hoc statement on a connection and records it in the
// history, whether it succeeds or not.
func (s *QueryService) Execute(ctx context.Context, connectionID string, req *ExecuteQueryRequest) (*QueryExecution, error) {
	conn, err := s.apps.Get(connectionID)
	if err != nil {
		return nil, err
	}
	if err := ValidateSQLQuery(req.SQL); err != nil {
		return nil, err
	}

	params := req.Params
	if params == nil {
		params = []any{}
	}

	start := time.Now()
	result, execErr := conn.ExecuteSQL(ctx, req.SQL, params...)
	elapsed := time.Since(start).Milliseconds()

	entry := &models.QueryHistory{
		ConnectionID:    connectionID,
		QueryText:       req.SQL,
		Params:          encodeParams(params),
		Status:          models.HistorySuccess,
		ExecutionTimeMs: elapsed,
	}
	if execErr != nil {
		entry.Status = models.HistoryError
		entry.Error = execErr.Error()
	} else {
		entry.RowCount = len(result.Rows)
	}

	// History is best effort; losing an entry never fails the statement.
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record query history", "connection", connectionID, "error", err)
	}

	if execErr != nil {
		return nil, execErr
	}
	return &QueryExecution{
		Result:          result,
		HistoryID:       entry.ID,
		RowCount:        entry.RowCount,
		ExecutionTimeMs: elapsed,
	}, nil
}

// History returns the newest entries recorded for a connection.
func (s *QueryService) History(ctx context.Context, connectionID string, limit int) ([]models.QueryHistory, error) {
	if _, err := s.apps.Get(connectionID); err != nil {
		return nil, err
	}
	return s.history.ListByConnection(ctx, connectionID, limit)
}

func encodeParams(params []any) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(data)
}
