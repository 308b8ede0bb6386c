package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/observability"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

// RedemptionService spends points on rewards under concurrent stock and
// balance enforcement.
type RedemptionService interface {
	Redeem(ctx context.Context, actor Actor, rewardID uint) (dto.RedemptionResponse, error)
	Fulfill(ctx context.Context, actor Actor, redemptionID uint) (dto.RedemptionResponse, error)
	ListRewards(ctx context.Context) ([]dto.RewardResponse, error)
	ListRedemptions(ctx context.Context, actor Actor) ([]dto.RedemptionResponse, error)
}

type redemptionService struct {
	repo     repository.RewardRepository
	audit    AuditRecorder
	notifier DomainNotifier
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewRedemptionService constructs the redemption manager.
func NewRedemptionService(repo repository.RewardRepository, audit AuditRecorder, notifier DomainNotifier, logger zerolog.Logger) RedemptionService {
	return &redemptionService{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		logger:   logger.With().Str("component", "redemption_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/campus-engage-api/internal/service/redemption"),
		now:      time.Now,
	}
}

// Redeem reserves the reward for the actor. The stock check runs before the
// balance check, and the decrement is a conditional update so two concurrent
// redeemers can never both take the last unit. A negative stock observed after
// decrement is a broken invariant and aborts the transaction.
func (s *redemptionService) Redeem(ctx context.Context, actor Actor, rewardID uint) (dto.RedemptionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "redemption.redeem")
	span.SetAttributes(
		attribute.Int64("redemption.reward_id", int64(rewardID)),
		attribute.Int64("redemption.actor_id", int64(actor.ID)),
	)
	defer span.End()

	var redemption models.Redemption

	err := s.repo.Atomically(ctx, func(tx repository.RedemptionTx) error {
		reward, err := tx.GetReward(rewardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}

		if !reward.Active {
			return ErrRewardInactive
		}

		if reward.Tracked() && *reward.Stock <= 0 {
			return ErrRewardOutOfStock
		}

		earned, err := tx.SumPoints(actor.ID)
		if err != nil {
			return err
		}
		spent, err := tx.SumSpent(actor.ID)
		if err != nil {
			return err
		}

		if earned-spent < reward.PointsCost {
			return ErrInsufficientPoints
		}

		redemption = models.Redemption{
			UserID:   actor.ID,
			RewardID: reward.ID,
			Status:   models.RedemptionStatusPending,
		}
		if err := tx.CreateRedemption(&redemption); err != nil {
			return err
		}

		if !reward.Tracked() {
			return nil
		}

		decremented, err := tx.DecrementStock(reward.ID)
		if err != nil {
			return err
		}
		if !decremented {
			// Lost the race for the last unit after the initial check.
			return ErrRewardOutOfStock
		}

		stock, err := tx.CurrentStock(reward.ID)
		if err != nil {
			return err
		}
		if stock != nil && *stock < 0 {
			return &ConsistencyError{
				Invariant: "reward stock must never go negative",
				Detail:    fmt.Sprintf("reward:%d stock:%d", reward.ID, *stock),
			}
		}

		return nil
	})
	if err != nil {
		if IsConsistencyFault(err) {
			observability.ConsistencyFaults().Inc()
			s.logger.Error().Err(err).
				Uint("reward_id", rewardID).
				Uint("user_id", actor.ID).
				Msg("stock invariant broken, transaction rolled back")
		}
		observability.Redemptions().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "redeem_failed")
		return dto.RedemptionResponse{}, err
	}

	observability.Redemptions().WithLabelValues("created").Inc()
	span.SetAttributes(attribute.Int64("redemption.id", int64(redemption.ID)))

	if s.notifier != nil {
		s.notifier.RedemptionCreated(actor.ID, rewardID, redemption.ID)
	}

	if s.audit != nil {
		entityID := redemption.ID
		_ = s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorName:  actor.DisplayName,
			ActorRole:  actor.Role(),
			Action:     "redemption.created",
			EntityType: "redemption",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"reward_id": rewardID,
			},
		})
	}

	return dto.NewRedemptionResponse(redemption), nil
}

// Fulfill hands out a pending redemption. Points and stock were already
// settled at redemption time, so fulfillment only records who and when.
func (s *redemptionService) Fulfill(ctx context.Context, actor Actor, redemptionID uint) (dto.RedemptionResponse, error) {
	if !actor.Elevated {
		return dto.RedemptionResponse{}, ErrNotElevated
	}

	fulfilled, err := s.repo.MarkFulfilled(ctx, redemptionID, actor.ID, s.now())
	if err != nil {
		return dto.RedemptionResponse{}, err
	}

	if !fulfilled {
		if _, err := s.repo.GetRedemption(ctx, redemptionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.RedemptionResponse{}, ErrRedemptionNotFound
			}
			return dto.RedemptionResponse{}, err
		}
		return dto.RedemptionResponse{}, ErrRedemptionNotPending
	}

	redemption, err := s.repo.GetRedemption(ctx, redemptionID)
	if err != nil {
		return dto.RedemptionResponse{}, err
	}

	if s.audit != nil {
		entityID := redemption.ID
		_ = s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorName:  actor.DisplayName,
			ActorRole:  actor.Role(),
			Action:     "redemption.fulfilled",
			EntityType: "redemption",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"user_id":   redemption.UserID,
				"reward_id": redemption.RewardID,
			},
		})
	}

	return dto.NewRedemptionResponse(redemption), nil
}

func (s *redemptionService) ListRewards(ctx context.Context) ([]dto.RewardResponse, error) {
	rewards, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewRewardResponseSlice(rewards), nil
}

func (s *redemptionService) ListRedemptions(ctx context.Context, actor Actor) ([]dto.RedemptionResponse, error) {
	redemptions, err := s.repo.ListRedemptionsForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.RedemptionResponse, 0, len(redemptions))
	for _, redemption := range redemptions {
		responses = append(responses, dto.NewRedemptionResponse(redemption))
	}

	return responses, nil
}
