package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// ActivityRepository defines data operations for the activity catalog.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	List(ctx context.Context) ([]models.Activity, error)
	CreateWithSlot(ctx context.Context, activity *models.Activity, slot *models.EventSlot) error
	Delete(ctx context.Context, id uint) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) List(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

// CreateWithSlot persists an activity together with its first event slot.
func (r *activityRepository) CreateWithSlot(ctx context.Context, activity *models.Activity, slot *models.EventSlot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activity).Error; err != nil {
			return err
		}

		if slot != nil {
			slot.ActivityID = activity.ID
			if err := tx.Create(slot).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *activityRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Activity{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
