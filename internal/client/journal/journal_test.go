package journal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func withClock(j *Journal, start time.Time) *time.Time {
	now := start
	j.now = func() time.Time { return now }
	n := 0
	j.newID = func() string { n++; return fmt.Sprintf("e%02d", n) }
	return &now
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	now := withClock(j, time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC))

	require.NoError(t, j.RecordMutation(ctx, "boussole", reconcile.KindUpdate, "7", nil))
	*now = now.Add(time.Second)
	require.NoError(t, j.RecordMutation(ctx, "visuals", reconcile.KindAction, "12", errors.New("http 409")))
	*now = now.Add(time.Second)
	require.NoError(t, j.RecordMutation(ctx, "weekly reports", reconcile.KindJob, "", nil))

	got, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "weekly reports", got[0].Collection)
	assert.Equal(t, "job", got[0].Kind)
	assert.Equal(t, "", got[0].EntityID)

	assert.Equal(t, "visuals", got[1].Collection)
	assert.Equal(t, OutcomeFailed, got[1].Outcome)
	assert.Equal(t, "http 409", got[1].Error)
	assert.Equal(t, "12", got[1].EntityID)
	assert.True(t, got[1].At.Equal(time.Date(2025, 2, 3, 10, 0, 1, 0, time.UTC)))

	s, err := j.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Accepted: 2, Failed: 1}, s)
}

func TestJournal_Prune(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	start := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	now := withClock(j, start)

	for i := 0; i < 3; i++ {
		require.NoError(t, j.RecordMutation(ctx, "boussole", reconcile.KindDelete, "1", nil))
		*now = now.Add(time.Hour)
	}

	n, err := j.Prune(ctx, start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestJournal_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(ctx, "", path)
	require.NoError(t, err)
	require.NoError(t, j.RecordMutation(ctx, "boussole", reconcile.KindCreate, "", nil))
	require.NoError(t, j.Close())

	j, err = Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y = ?`
	assert.Equal(t, q, rebind(dialectSQLite, q))
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`, rebind(dialectPostgres, q))
}
