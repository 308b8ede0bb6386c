package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

func pointsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:points_svc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PointLedger{}))

	t.Cleanup(func() {
		db.Exec("DELETE FROM point_ledgers")
		db.Exec("DELETE FROM users")
	})

	return db
}

func grant(t *testing.T, db *gorm.DB, userID uint, points int, reference string, at time.Time) {
	t.Helper()

	require.NoError(t, db.Create(&models.PointLedger{
		UserID:      userID,
		ActivityID:  1,
		Points:      points,
		Source:      models.LedgerSourceSubmission,
		ReferenceID: reference,
		CreatedAt:   at,
	}).Error)
}

func TestPointsSummaryWindowed(t *testing.T) {
	db := pointsTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Alva", Email: "alva@example.com"}).Error)

	now := time.Now().UTC()
	grant(t, db, 1, 5, "submission:1", now.AddDate(0, -2, 0))
	grant(t, db, 1, 8, "submission:2", now)

	svc := NewPointsService(repository.NewLedgerRepository(db), nil, 0, testLogger())

	all, err := svc.Summary(context.Background(), Actor{ID: 1}, repository.TimeWindow{})
	require.NoError(t, err)
	require.Equal(t, 13, all.Total)

	start := now.AddDate(0, -1, 0)
	recent, err := svc.Summary(context.Background(), Actor{ID: 1}, repository.TimeWindow{Start: &start})
	require.NoError(t, err)
	require.Equal(t, 8, recent.Total)
}

func TestLeaderboardRanksAndTieBreaks(t *testing.T) {
	db := pointsTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Zara", Email: "zara@example.com"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Name: "Adam", Email: "adam@example.com"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 3, Name: "Mila", Email: "mila@example.com"}).Error)

	now := time.Now().UTC()
	grant(t, db, 1, 5, "submission:1", now)
	grant(t, db, 2, 5, "submission:2", now)
	grant(t, db, 3, 8, "submission:3", now)

	svc := NewPointsService(repository.NewLedgerRepository(db), nil, 0, testLogger())

	board, err := svc.Leaderboard(context.Background(), repository.TimeWindow{}, 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)

	require.Equal(t, 1, board.Entries[0].Rank)
	require.Equal(t, "Mila", board.Entries[0].Name)

	// Equal totals order by name.
	require.Equal(t, 2, board.Entries[1].Rank)
	require.Equal(t, "Adam", board.Entries[1].Name)
	require.Equal(t, 3, board.Entries[2].Rank)
	require.Equal(t, "Zara", board.Entries[2].Name)
}

func TestLeaderboardUsesCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := pointsTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Alva", Email: "alva@example.com"}).Error)

	now := time.Now().UTC()
	grant(t, db, 1, 5, "submission:1", now)

	svc := NewPointsService(repository.NewLedgerRepository(db), redisClient, time.Minute, testLogger())
	ctx := context.Background()

	first, err := svc.Leaderboard(ctx, repository.TimeWindow{}, 10)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	require.Equal(t, 5, first.Entries[0].Total)

	// New grants are invisible until the cache expires.
	grant(t, db, 1, 8, "submission:2", now)

	cached, err := svc.Leaderboard(ctx, repository.TimeWindow{}, 10)
	require.NoError(t, err)
	require.Equal(t, 5, cached.Entries[0].Total)

	mini.FastForward(2 * time.Minute)

	fresh, err := svc.Leaderboard(ctx, repository.TimeWindow{}, 10)
	require.NoError(t, err)
	require.Equal(t, 13, fresh.Entries[0].Total)
}

func TestPointsHistory(t *testing.T) {
	db := pointsTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Alva", Email: "alva@example.com"}).Error)

	now := time.Now().UTC()
	grant(t, db, 1, 5, "submission:1", now.Add(-time.Hour))
	grant(t, db, 1, 8, "submission:2", now)

	svc := NewPointsService(repository.NewLedgerRepository(db), nil, 0, testLogger())

	history, err := svc.History(context.Background(), Actor{ID: 1}, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 8, history[0].Points)
}
