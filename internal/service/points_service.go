package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

// PointsService exposes ledger aggregates: per-user totals and ranked
// leaderboards over arbitrary half-open time windows.
type PointsService interface {
	Summary(ctx context.Context, actor Actor, window repository.TimeWindow) (dto.PointsSummaryResponse, error)
	History(ctx context.Context, actor Actor, limit int) ([]dto.LedgerEntryResponse, error)
	Leaderboard(ctx context.Context, window repository.TimeWindow, limit int) (dto.LeaderboardResponse, error)
}

type pointsService struct {
	repo     repository.LedgerRepository
	redis    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewPointsService constructs the points aggregation service. The redis client
// may be nil, in which case leaderboard reads always hit the database.
func NewPointsService(repo repository.LedgerRepository, redisClient *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) PointsService {
	return &pointsService{
		repo:     repo,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "points_service").Logger(),
	}
}

func (s *pointsService) Summary(ctx context.Context, actor Actor, window repository.TimeWindow) (dto.PointsSummaryResponse, error) {
	total, err := s.repo.TotalPoints(ctx, actor.ID, window)
	if err != nil {
		return dto.PointsSummaryResponse{}, err
	}

	return dto.PointsSummaryResponse{
		UserID: actor.ID,
		Total:  total,
		Start:  window.Start,
		End:    window.End,
	}, nil
}

func (s *pointsService) History(ctx context.Context, actor Actor, limit int) ([]dto.LedgerEntryResponse, error) {
	entries, err := s.repo.ListForUser(ctx, actor.ID, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewLedgerEntryResponseSlice(entries), nil
}

// Leaderboard ranks users by windowed totals. Standings are cached briefly in
// redis since the query aggregates the whole ledger; a stale board within the
// TTL is acceptable.
func (s *pointsService) Leaderboard(ctx context.Context, window repository.TimeWindow, limit int) (dto.LeaderboardResponse, error) {
	cacheKey := leaderboardCacheKey(window, limit)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.LeaderboardResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				return response, nil
			}
			s.logger.Warn().Str("key", cacheKey).Msg("discarding undecodable leaderboard cache entry")
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("leaderboard cache read failed")
		}
	}

	rows, err := s.repo.Leaderboard(ctx, window, limit)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:   i + 1,
			UserID: row.UserID,
			Name:   row.Name,
			Total:  row.Total,
		})
	}

	response := dto.LeaderboardResponse{
		Entries: entries,
		Start:   window.Start,
		End:     window.End,
	}

	if s.redis != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(response); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("leaderboard cache write failed")
			}
		}
	}

	return response, nil
}

func leaderboardCacheKey(window repository.TimeWindow, limit int) string {
	start, end := "-", "-"
	if window.Start != nil {
		start = window.Start.UTC().Format(time.RFC3339)
	}
	if window.End != nil {
		end = window.End.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf("engage:leaderboard:%s:%s:%d", start, end, limit)
}
