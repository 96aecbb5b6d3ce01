package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pglens/internal/database"
	"pglens/internal/models"
	"pglens/internal/testutil"
	"pglens/internal/testutil/dbtest"
)

// flakySanity fails the sanity query the first failures times.
func flakySanity(exec *dbtest.Executor, failures int32) *atomic.Int32 {
	var calls atomic.Int32
	exec.Handle(dbtest.SQLContains(database.SanityQuery), func([]any) (*database.QueryResult, error) {
		if calls.Add(1) <= failures {
			return nil, errors.New("connection refused")
		}
		return dbtest.Result([]string{"sanity"}, []any{int64(1)}), nil
	})
	return &calls
}

func testMonitorConfig(retries int) MonitorConfig {
	return MonitorConfig{Interval: time.Hour, Retries: retries, RetryDelay: time.Millisecond}
}

func TestMonitor_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("retries until connected then refreshes", func(t *testing.T) {
		exec := dbtest.StubCatalog(dbtest.New(), shopSnapshot())
		calls := flakySanity(exec, 2)
		apps, _ := newTestAppService(t, exec, "")
		conn, err := apps.Add(testConfig("local"))
		require.NoError(t, err)

		m := NewMonitor(apps, testMonitorConfig(3), testutil.NewTestLogger(t))
		require.NoError(t, m.Refresh(ctx, conn))

		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, models.StatusConnected, conn.Status())
		assert.Len(t, conn.Snapshot().Tables, 4)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		exec := dbtest.StubCatalog(dbtest.New(), shopSnapshot())
		calls := flakySanity(exec, 10)
		apps, _ := newTestAppService(t, exec, "")
		conn, err := apps.Add(testConfig("local"))
		require.NoError(t, err)

		m := NewMonitor(apps, testMonitorConfig(3), nil)
		err = m.Refresh(ctx, conn)

		var connErr *database.ConnectivityError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, models.StatusFailed, conn.Status())
		assert.Empty(t, conn.Snapshot().Tables)
		assert.Empty(t, exec.CallsMatching(dbtest.TablesProbe))
	})

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		exec := dbtest.New()
		flakySanity(exec, 10)
		apps, _ := newTestAppService(t, exec, "")
		conn, err := apps.Add(testConfig("local"))
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		m := NewMonitor(apps, MonitorConfig{Interval: time.Hour, Retries: 3, RetryDelay: time.Hour}, nil)
		assert.ErrorIs(t, m.Refresh(cctx, conn), context.Canceled)
	})
}

func TestMonitor_PollOnce(t *testing.T) {
	exec := dbtest.StubCatalog(dbtest.New(), shopSnapshot())
	flakySanity(exec, 0)
	apps, _ := newTestAppService(t, exec, "")
	for _, id := range []string{"a", "b"} {
		_, err := apps.Add(testConfig(id))
		require.NoError(t, err)
	}

	NewMonitor(apps, testMonitorConfig(1), nil).PollOnce(context.Background())

	for _, conn := range apps.List() {
		assert.Equal(t, models.StatusConnected, conn.Status(), conn.ID())
		assert.Len(t, conn.Snapshot().Tables, 4, conn.ID())
	}
}

func TestMonitor_RunStopsWithContext(t *testing.T) {
	exec := dbtest.StubCatalog(dbtest.New(), shopSnapshot())
	flakySanity(exec, 0)
	apps, _ := newTestAppService(t, exec, "")
	_, err := apps.Add(testConfig("local"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewMonitor(apps, MonitorConfig{Interval: 5 * time.Millisecond, Retries: 1}, nil).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(exec.CallsMatching(database.SanityQuery)) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
