package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

func newTestRepo(t *testing.T) (AttendanceRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })

	return NewRedisAttendanceRepository(cli, time.Hour, logger.InitializeTestZapLogger()), mr
}

var testRef = models.SessionRef{Kind: models.SessionKindQuran, ID: "42"}

func TestJoin_CreatesEvent(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	joinedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ev, created, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: joinedAt})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "42", ev.SessionID)
	assert.Equal(t, models.SessionKindQuran, ev.Kind)
	assert.Equal(t, joinedAt, ev.JoinedAt)
	assert.Equal(t, models.AttendanceSourceAPI, ev.Source)
	assert.True(t, ev.IsOpen())

	assert.Greater(t, mr.TTL("attendance:{quran:42:u1}:open"), time.Duration(0))
}

func TestJoin_IdempotentWhileOpen(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	first, created, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now.Add(time.Second)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, now, second.JoinedAt)

	events, err := repo.ListEvents(ctx, testRef, "u1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestJoin_ConcurrentProducesOneOpenEvent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]struct{}{}
		created int
	)
	for i := 0; i < n; i++ {
		wg.Go(func() {
			ev, c, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now})
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			ids[ev.ID] = struct{}{}
			if c {
				created++
			}
		})
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)

	events, err := repo.ListEvents(ctx, testRef, "u1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLeave_ClosesOpenEvent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, _, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now})
	require.NoError(t, err)

	ev, err := repo.Leave(ctx, testRef, "u1", now.Add(25*time.Minute+30*time.Second))
	require.NoError(t, err)
	require.NotNil(t, ev.LeftAt)
	assert.Equal(t, 25, ev.DurationMinutes)
	assert.False(t, ev.IsOpen())

	_, err = repo.GetOpenEvent(ctx, testRef, "u1")
	assert.ErrorIs(t, err, ErrNoOpenEvent)

	_, err = repo.Leave(ctx, testRef, "u1", now.Add(26*time.Minute))
	assert.ErrorIs(t, err, ErrNoOpenEvent)
}

func TestLeave_ClockSkewClampsToZero(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, _, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now})
	require.NoError(t, err)

	ev, err := repo.Leave(ctx, testRef, "u1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, ev.DurationMinutes)
}

func TestLeave_ConcurrentClosesOnce(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, _, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now})
	require.NoError(t, err)

	const n = 10
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closed int
	)
	for i := 0; i < n; i++ {
		wg.Go(func() {
			_, err := repo.Leave(ctx, testRef, "u1", now.Add(10*time.Minute))
			if err == nil {
				mu.Lock()
				closed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrNoOpenEvent)
		})
	}
	wg.Wait()

	assert.Equal(t, 1, closed)
}

func TestListEvents_RejoinAfterLeave(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, _, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now})
	require.NoError(t, err)
	_, err = repo.Leave(ctx, testRef, "u1", now.Add(10*time.Minute))
	require.NoError(t, err)
	_, created, err := repo.Join(ctx, JoinInput{Ref: testRef, UserID: "u1", JoinedAt: now.Add(15 * time.Minute), Source: models.AttendanceSourceWebhook})
	require.NoError(t, err)
	assert.True(t, created)

	events, err := repo.ListEvents(ctx, testRef, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].IsOpen())
	assert.Equal(t, 10, events[0].DurationMinutes)
	assert.True(t, events[1].IsOpen())
	assert.Equal(t, models.AttendanceSourceWebhook, events[1].Source)

	// other users and kinds are isolated
	other, err := repo.ListEvents(ctx, models.SessionRef{Kind: models.SessionKindAcademic, ID: "42"}, "u1")
	require.NoError(t, err)
	assert.Empty(t, other)
}
