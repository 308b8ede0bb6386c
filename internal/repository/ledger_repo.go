package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// TimeWindow is a half-open [Start, End) interval. Nil bounds are unbounded.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

func (w TimeWindow) apply(query *gorm.DB) *gorm.DB {
	if w.Start != nil {
		query = query.Where("point_ledgers.created_at >= ?", *w.Start)
	}
	if w.End != nil {
		query = query.Where("point_ledgers.created_at < ?", *w.End)
	}

	return query
}

// LeaderboardRow is one aggregated standing.
type LeaderboardRow struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Total  int    `json:"total"`
}

// LedgerRepository reads and appends point grants. Ledger rows are immutable;
// there is deliberately no update or delete operation here.
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.PointLedger) error
	TotalPoints(ctx context.Context, userID uint, window TimeWindow) (int, error)
	Leaderboard(ctx context.Context, window TimeWindow, limit int) ([]LeaderboardRow, error)
	CountForActivitySince(ctx context.Context, userID, activityID uint, since time.Time) (int64, error)
	ListForUser(ctx context.Context, userID uint, limit int) ([]models.PointLedger, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository instantiates the repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.PointLedger) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) TotalPoints(ctx context.Context, userID uint, window TimeWindow) (int, error) {
	query := r.db.WithContext(ctx).Model(&models.PointLedger{}).
		Where("point_ledgers.user_id = ?", userID)
	query = window.apply(query)

	var total int
	if err := query.Select("COALESCE(SUM(points), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

// Leaderboard groups grants by user within the window. Ties on total are
// broken by display name so equal totals always order deterministically.
func (r *ledgerRepository) Leaderboard(ctx context.Context, window TimeWindow, limit int) ([]LeaderboardRow, error) {
	query := r.db.WithContext(ctx).Model(&models.PointLedger{}).
		Select("point_ledgers.user_id AS user_id, users.name AS name, SUM(point_ledgers.points) AS total").
		Joins("JOIN users ON users.id = point_ledgers.user_id").
		Group("point_ledgers.user_id, users.name").
		Order("total DESC, users.name ASC")
	query = window.apply(query)

	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []LeaderboardRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *ledgerRepository) CountForActivitySince(ctx context.Context, userID, activityID uint, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PointLedger{}).
		Where("user_id = ?", userID).
		Where("activity_id = ?", activityID).
		Where("created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ledgerRepository) ListForUser(ctx context.Context, userID uint, limit int) ([]models.PointLedger, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.PointLedger
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
