package store_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/logging"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/store"
	"github.com/sazalo101/mindis/internal/store/postgres"
)

var t0 = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

type backend struct {
	name string
	open func(t *testing.T, clock models.Clock) store.Store
}

// backends always includes SQLite; PostgreSQL joins when TEST_DATABASE_URL
// is set.
func backends() []backend {
	out := []backend{{name: "sqlite", open: openSQLite}}
	if strings.TrimSpace(os.Getenv("TEST_DATABASE_URL")) != "" {
		out = append(out, backend{name: "postgres", open: openPostgres})
	}
	return out
}

func openSQLite(t *testing.T, clock models.Clock) store.Store {
	t.Helper()
	cfg := config.Defaults()
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.SQLitePath = ":memory:"

	s, err := store.Open(context.Background(), cfg, clock, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var pgMu sync.Mutex

func openPostgres(t *testing.T, clock models.Clock) store.Store {
	t.Helper()
	pgMu.Lock()
	t.Cleanup(pgMu.Unlock)

	cfg := config.Defaults()
	cfg.DatabaseDriver = config.DriverPostgres
	cfg.DatabaseURL = os.Getenv("TEST_DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := store.Open(ctx, cfg, clock, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.(*postgres.Store).Pool().Exec(ctx,
		`TRUNCATE TABLE insights, journal_entries, mood_entries, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return s
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store, clock *models.ManualClock)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			clock := models.NewManualClock(t0)
			fn(t, b.open(t, clock), clock)
		})
	}
}

func mustUser(t *testing.T, s store.Store, name string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), name, name+"@example.com", "$argon2id$stub")
	require.NoError(t, err)
	return id
}

func TestUsersUniqueIdentity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store, _ *models.ManualClock) {
		ctx := context.Background()
		id := mustUser(t, s, "alice")
		assert.Equal(t, int64(1), id)

		_, err := s.CreateUser(ctx, "alice", "other@example.com", "h")
		assert.ErrorIs(t, err, models.ErrDuplicateIdentity)
		_, err = s.CreateUser(ctx, "alice2", "alice@example.com", "h")
		assert.ErrorIs(t, err, models.ErrDuplicateIdentity)

		user, err := s.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, t0, user.CreatedAt)

		_, err = s.UserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.UserByID(ctx, 404)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestListMoodsOrderingAndScope(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store, clock *models.ManualClock) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")

		var ids []int64
		for i, label := range []string{"calm", "happy", "anxious"} {
			id, err := s.InsertMood(ctx, alice, label, i+3, "")
			require.NoError(t, err)
			ids = append(ids, id)
			clock.Advance(time.Minute)
		}
		// same second as the previous insert: id breaks the tie
		clock.Advance(-time.Minute)
		tied, err := s.InsertMood(ctx, alice, "tired", 2, "late")
		require.NoError(t, err)

		_, err = s.InsertMood(ctx, bob, "angry", 9, "")
		require.NoError(t, err)

		moods, err := s.ListMoods(ctx, alice, 10)
		require.NoError(t, err)
		require.Len(t, moods, 4)
		assert.Equal(t, []int64{tied, ids[2], ids[1], ids[0]}, []int64{moods[0].ID, moods[1].ID, moods[2].ID, moods[3].ID})
		for _, m := range moods {
			assert.Equal(t, alice, m.UserID)
		}
		assert.Equal(t, "late", moods[0].Notes)

		limited, err := s.ListMoods(ctx, alice, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})
}

func TestMoodStatsWindow(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store, clock *models.ManualClock) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")

		clock.Set(t0.Add(-8 * 24 * time.Hour))
		_, err := s.InsertMood(ctx, alice, "sad", 2, "")
		require.NoError(t, err)

		clock.Set(t0.Add(-2 * 24 * time.Hour))
		_, err = s.InsertMood(ctx, alice, "happy", 6, "")
		require.NoError(t, err)
		clock.Set(t0.Add(-1 * 24 * time.Hour))
		_, err = s.InsertMood(ctx, alice, "happy", 8, "")
		require.NoError(t, err)
		_, err = s.InsertMood(ctx, alice, "calm", 5, "")
		require.NoError(t, err)

		clock.Set(t0)
		stats, err := s.MoodStatsSince(ctx, alice, 7)
		require.NoError(t, err)
		assert.Equal(t, []models.MoodStat{
			{MoodType: "happy", Count: 2, AvgIntensity: 7},
			{MoodType: "calm", Count: 1, AvgIntensity: 5},
		}, stats)

		window, err := s.ListMoodsInWindow(ctx, alice, 7)
		require.NoError(t, err)
		require.Len(t, window, 3)
		assert.Equal(t, "happy", window[0].MoodType)
		assert.Equal(t, 6, window[0].Intensity)

		all, err := s.MoodStatsSince(ctx, alice, 30)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestJournalAndInsightLists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store, clock *models.ManualClock) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")

		first, err := s.InsertJournalEntry(ctx, alice, "Rough day.", []string{"tired", "sad"})
		require.NoError(t, err)
		clock.Advance(time.Second)
		second, err := s.InsertJournalEntry(ctx, alice, "Better today.", nil)
		require.NoError(t, err)

		entries, err := s.ListJournalEntries(ctx, alice, 5)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, second, entries[0].ID)
		assert.Equal(t, []string{}, entries[0].MoodTags)
		assert.Equal(t, []string{"tired", "sad"}, entries[1].MoodTags)

		insightID, err := s.InsertInsight(ctx, alice, "You are doing well.", []int64{second, first})
		require.NoError(t, err)
		_, err = s.InsertInsight(ctx, alice, "Older.", []int64{})
		require.NoError(t, err)

		insights, err := s.ListInsights(ctx, alice, 1)
		require.NoError(t, err)
		require.Len(t, insights, 1)
		// same timestamp: the later id comes first
		assert.Equal(t, "Older.", insights[0].Text)

		insights, err = s.ListInsights(ctx, alice, 5)
		require.NoError(t, err)
		require.Len(t, insights, 2)
		assert.Equal(t, insightID, insights[1].ID)
		assert.Equal(t, []int64{second, first}, insights[1].RelatedEntries)
		assert.Equal(t, []int64{}, insights[0].RelatedEntries)
	})
}

func TestSchemaVersion(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store, _ *models.ManualClock) {
		version, err := store.SchemaVersion(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.DatabaseDriver = "oracle"
	_, err := store.Open(context.Background(), cfg, nil, logging.Discard())
	assert.Error(t, err)
}
