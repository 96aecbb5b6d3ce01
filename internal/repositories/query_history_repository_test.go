package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pglens/internal/models"
)

func TestMemoryHistoryRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("lists newest first per connection", func(t *testing.T) {
		repo := NewMemoryHistoryRepository(0)
		for i := range 3 {
			require.NoError(t, repo.Create(ctx, &models.QueryHistory{
				ConnectionID: "a",
				QueryText:    fmt.Sprintf("SELECT %d", i),
				ExecutedAt:   base.Add(time.Duration(i) * time.Minute),
			}))
		}
		require.NoError(t, repo.Create(ctx, &models.QueryHistory{ConnectionID: "b", QueryText: "SELECT 'b'"}))

		list, err := repo.ListByConnection(ctx, "a", 0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "SELECT 2", list[0].QueryText)
		assert.Equal(t, "SELECT 0", list[2].QueryText)
		assert.NotEqual(t, uuid.Nil, list[0].ID)

		limited, err := repo.ListByConnection(ctx, "a", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("evicts oldest beyond capacity", func(t *testing.T) {
		repo := NewMemoryHistoryRepository(2)
		for i := range 4 {
			require.NoError(t, repo.Create(ctx, &models.QueryHistory{
				ConnectionID: "a",
				QueryText:    fmt.Sprintf("SELECT %d", i),
				ExecutedAt:   base.Add(time.Duration(i) * time.Second),
			}))
		}

		list, err := repo.ListByConnection(ctx, "a", 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "SELECT 3", list[0].QueryText)
		assert.Equal(t, "SELECT 2", list[1].QueryText)
	})

	t.Run("delete by connection", func(t *testing.T) {
		repo := NewMemoryHistoryRepository(0)
		require.NoError(t, repo.Create(ctx, &models.QueryHistory{ConnectionID: "a", QueryText: "SELECT 1"}))
		require.NoError(t, repo.DeleteByConnection(ctx, "a"))

		list, err := repo.ListByConnection(ctx, "a", 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
