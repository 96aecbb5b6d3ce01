package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pglens/internal/database"
	"pglens/internal/models"
)

const sampleConfig = `{
  "connections": [
    {
      "id": "local",
      "name": "Local",
      "order": 1,
      "connection": {"host": "localhost", "port": 5432, "user": "postgres", "password": "postgres", "database": "postgres"},
      "queries": [
        {"id": "q1", "name": "Recent orders", "description": "", "order": 0, "query": "SELECT * FROM orders"}
      ]
    }
  ]
}`

func TestConfigRepository_Read(t *testing.T) {
	t.Run("missing file is an empty config", func(t *testing.T) {
		repo := NewConfigRepository(filepath.Join(t.TempDir(), "nope", "config.json"))
		cfg, err := repo.Read()
		require.NoError(t, err)
		assert.Empty(t, cfg.Connections)
		assert.NotNil(t, cfg.Connections)
	})

	t.Run("absent lists decode as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

		cfg, err := NewConfigRepository(path).Read()
		require.NoError(t, err)
		require.Len(t, cfg.Connections, 1)

		conn := cfg.Connections[0]
		assert.Equal(t, "local", conn.ID)
		assert.Equal(t, 5432, conn.Connection.Port)
		assert.Equal(t, []models.TagInfo{}, conn.Tags)
		require.Len(t, conn.Queries, 1)
		assert.Equal(t, []string{}, conn.Queries[0].TagIDs)
		assert.Equal(t, []models.QueryParam{}, conn.Queries[0].Params)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

		_, err := NewConfigRepository(path).Read()
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"missing host", `{"connections":[{"id":"a","name":"A","connection":{"port":5432,"user":"u","database":"d"}}]}`},
			{"bad port", `{"connections":[{"id":"a","name":"A","connection":{"host":"h","port":70000,"user":"u","database":"d"}}]}`},
			{"missing id", `{"connections":[{"name":"A","connection":{"host":"h","port":5432,"user":"u","database":"d"}}]}`},
			{"duplicate ids", `{"connections":[
				{"id":"a","name":"A","connection":{"host":"h","port":5432,"user":"u","database":"d"}},
				{"id":"a","name":"B","connection":{"host":"h","port":5432,"user":"u","database":"d"}}]}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.json")
				require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

				_, err := NewConfigRepository(path).Read()
				assert.ErrorContains(t, err, "invalid config file")
			})
		}
	})
}

func TestConfigRepository_WriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	repo := NewConfigRepository(path)

	cfg := &models.AppConfig{Connections: []models.ConnectionConfigFile{{
		ID:    "local",
		Name:  "Local",
		Order: 2,
		Connection: database.ConnectionArgs{
			Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Database: "app",
		},
		Queries: []models.Query{{
			ID: "q1", Name: "All", Query: "SELECT 1", TagIDs: []string{"t1"},
			Params: []models.QueryParam{{Name: "id", Value: "1", Type: "int"}},
		}},
		Tags: []models.TagInfo{{ID: "t1", Name: "reports"}},
	}}}

	require.NoError(t, repo.Write(cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"connections\"")
	assert.Contains(t, string(data), `"tagIds"`)

	got, err := repo.Read()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
