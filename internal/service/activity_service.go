package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

// ErrSlotWindowInvalid indicates the slot's end does not follow its start.
var ErrSlotWindowInvalid = errors.New("event slot must end after it starts")

// ActivityService manages the activity catalog.
type ActivityService interface {
	Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	List(ctx context.Context) ([]dto.ActivityResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type activityService struct {
	repo      repository.ActivityRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs the activity catalog service.
func NewActivityService(repo repository.ActivityRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

// Create registers an activity and its first event slot in one transaction.
func (s *activityService) Create(ctx context.Context, actor Actor, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if !actor.Elevated {
		return dto.ActivityResponse{}, ErrNotElevated
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	if !payload.EndAt.After(payload.StartAt) {
		return dto.ActivityResponse{}, ErrSlotWindowInvalid
	}

	activity := models.Activity{
		Title:                payload.Title,
		Description:          payload.Description,
		Tier:                 payload.Tier,
		RequiresProof:        payload.RequiresProof,
		MonthlyCapPerStudent: payload.MonthlyCapPerStudent,
	}
	slot := models.EventSlot{
		StartAt:         payload.StartAt,
		EndAt:           payload.EndAt,
		MaxParticipants: payload.MaxParticipants,
		Location:        payload.Location,
	}

	if err := s.repo.CreateWithSlot(ctx, &activity, &slot); err != nil {
		return dto.ActivityResponse{}, err
	}

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Int("tier", activity.Tier).
		Msg("activity created")

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) List(ctx context.Context) ([]dto.ActivityResponse, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *activityService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.Elevated {
		return ErrNotElevated
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return err
	}

	s.logger.Info().Uint("activity_id", id).Msg("activity deleted")
	return nil
}
