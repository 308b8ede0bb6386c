package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// RedemptionTx exposes the mutations used by the redemption manager. All
// methods run inside the transaction opened by Atomically.
type RedemptionTx interface {
	GetReward(id uint) (models.Reward, error)
	SumPoints(userID uint) (int, error)
	SumSpent(userID uint) (int, error)
	CreateRedemption(redemption *models.Redemption) error
	DecrementStock(rewardID uint) (bool, error)
	CurrentStock(rewardID uint) (*int, error)
}

// RewardRepository defines data operations for rewards and redemptions.
type RewardRepository interface {
	GetByID(ctx context.Context, id uint) (models.Reward, error)
	ListActive(ctx context.Context) ([]models.Reward, error)
	GetRedemption(ctx context.Context, id uint) (models.Redemption, error)
	ListRedemptionsForUser(ctx context.Context, userID uint) ([]models.Redemption, error)
	MarkFulfilled(ctx context.Context, id, actorID uint, at time.Time) (bool, error)
	Atomically(ctx context.Context, fn func(tx RedemptionTx) error) error
}

type rewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository instantiates the repository.
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) GetByID(ctx context.Context, id uint) (models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).First(&reward, id).Error; err != nil {
		return models.Reward{}, err
	}

	return reward, nil
}

func (r *rewardRepository) ListActive(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("points_cost ASC").
		Find(&rewards).Error; err != nil {
		return nil, err
	}

	return rewards, nil
}

func (r *rewardRepository) GetRedemption(ctx context.Context, id uint) (models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.WithContext(ctx).Preload("Reward").First(&redemption, id).Error; err != nil {
		return models.Redemption{}, err
	}

	return redemption, nil
}

func (r *rewardRepository) ListRedemptionsForUser(ctx context.Context, userID uint) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	if err := r.db.WithContext(ctx).
		Preload("Reward").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&redemptions).Error; err != nil {
		return nil, err
	}

	return redemptions, nil
}

// MarkFulfilled flips a pending redemption to fulfilled. Returns false when no
// pending row matched, leaving it to the caller to distinguish missing from
// already resolved.
func (r *rewardRepository) MarkFulfilled(ctx context.Context, id, actorID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("id = ?", id).
		Where("status = ?", models.RedemptionStatusPending).
		Updates(map[string]interface{}{
			"status":       models.RedemptionStatusFulfilled,
			"fulfilled_by": actorID,
			"fulfilled_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *rewardRepository) Atomically(ctx context.Context, fn func(tx RedemptionTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&redemptionTx{db: tx})
	})
}

type redemptionTx struct {
	db *gorm.DB
}

func (t *redemptionTx) GetReward(id uint) (models.Reward, error) {
	var reward models.Reward
	if err := t.db.First(&reward, id).Error; err != nil {
		return models.Reward{}, err
	}

	return reward, nil
}

func (t *redemptionTx) SumPoints(userID uint) (int, error) {
	var total int
	if err := t.db.Model(&models.PointLedger{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

func (t *redemptionTx) SumSpent(userID uint) (int, error) {
	var spent int
	if err := t.db.Model(&models.Redemption{}).
		Joins("JOIN rewards ON rewards.id = redemptions.reward_id").
		Where("redemptions.user_id = ?", userID).
		Where("redemptions.status <> ?", models.RedemptionStatusCanceled).
		Select("COALESCE(SUM(rewards.points_cost), 0)").
		Scan(&spent).Error; err != nil {
		return 0, err
	}

	return spent, nil
}

func (t *redemptionTx) CreateRedemption(redemption *models.Redemption) error {
	return t.db.Create(redemption).Error
}

// DecrementStock performs the conditional atomic decrement. The WHERE guard
// makes a lost-update race impossible: only one of two concurrent redeemers
// can win the last unit.
func (t *redemptionTx) DecrementStock(rewardID uint) (bool, error) {
	result := t.db.Model(&models.Reward{}).
		Where("id = ?", rewardID).
		Where("stock > 0").
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (t *redemptionTx) CurrentStock(rewardID uint) (*int, error) {
	var reward models.Reward
	if err := t.db.Select("stock").First(&reward, rewardID).Error; err != nil {
		return nil, err
	}

	return reward.Stock, nil
}
