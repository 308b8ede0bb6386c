package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

type fakeRewardStore struct {
	rewards     map[uint]*models.Reward
	redemptions map[uint]*models.Redemption
	earned      map[uint]int
	nextID      uint

	// overDecrement makes DecrementStock take two units, simulating a lost
	// guard so the invariant re-check can be exercised.
	overDecrement bool
}

func newFakeRewardStore() *fakeRewardStore {
	return &fakeRewardStore{
		rewards:     map[uint]*models.Reward{},
		redemptions: map[uint]*models.Redemption{},
		earned:      map[uint]int{},
		nextID:      1,
	}
}

func (s *fakeRewardStore) GetByID(ctx context.Context, id uint) (models.Reward, error) {
	reward, ok := s.rewards[id]
	if !ok {
		return models.Reward{}, gorm.ErrRecordNotFound
	}
	return *reward, nil
}

func (s *fakeRewardStore) ListActive(ctx context.Context) ([]models.Reward, error) {
	var result []models.Reward
	for _, reward := range s.rewards {
		if reward.Active {
			result = append(result, *reward)
		}
	}
	return result, nil
}

func (s *fakeRewardStore) GetRedemption(ctx context.Context, id uint) (models.Redemption, error) {
	redemption, ok := s.redemptions[id]
	if !ok {
		return models.Redemption{}, gorm.ErrRecordNotFound
	}
	return *redemption, nil
}

func (s *fakeRewardStore) ListRedemptionsForUser(ctx context.Context, userID uint) ([]models.Redemption, error) {
	var result []models.Redemption
	for _, redemption := range s.redemptions {
		if redemption.UserID == userID {
			result = append(result, *redemption)
		}
	}
	return result, nil
}

func (s *fakeRewardStore) MarkFulfilled(ctx context.Context, id, actorID uint, at time.Time) (bool, error) {
	redemption, ok := s.redemptions[id]
	if !ok || redemption.Status != models.RedemptionStatusPending {
		return false, nil
	}
	redemption.Status = models.RedemptionStatusFulfilled
	redemption.FulfilledBy = &actorID
	redemption.FulfilledAt = &at
	return true, nil
}

func (s *fakeRewardStore) Atomically(ctx context.Context, fn func(tx repository.RedemptionTx) error) error {
	// Snapshot for rollback on error, mirroring transactional semantics.
	rewards := map[uint]models.Reward{}
	for id, reward := range s.rewards {
		copied := *reward
		if reward.Stock != nil {
			stock := *reward.Stock
			copied.Stock = &stock
		}
		rewards[id] = copied
	}
	redemptions := map[uint]*models.Redemption{}
	for id, redemption := range s.redemptions {
		copied := *redemption
		redemptions[id] = &copied
	}
	nextID := s.nextID

	if err := fn(s); err != nil {
		for id, reward := range rewards {
			copied := reward
			s.rewards[id] = &copied
		}
		s.redemptions = redemptions
		s.nextID = nextID
		return err
	}
	return nil
}

func (s *fakeRewardStore) GetReward(id uint) (models.Reward, error) {
	return s.GetByID(context.Background(), id)
}

func (s *fakeRewardStore) SumPoints(userID uint) (int, error) {
	return s.earned[userID], nil
}

func (s *fakeRewardStore) SumSpent(userID uint) (int, error) {
	spent := 0
	for _, redemption := range s.redemptions {
		if redemption.UserID != userID || redemption.Status == models.RedemptionStatusCanceled {
			continue
		}
		if reward, ok := s.rewards[redemption.RewardID]; ok {
			spent += reward.PointsCost
		}
	}
	return spent, nil
}

func (s *fakeRewardStore) CreateRedemption(redemption *models.Redemption) error {
	redemption.ID = s.nextID
	s.nextID++
	copied := *redemption
	s.redemptions[redemption.ID] = &copied
	return nil
}

func (s *fakeRewardStore) DecrementStock(rewardID uint) (bool, error) {
	reward := s.rewards[rewardID]
	if reward.Stock == nil {
		return false, nil
	}
	if *reward.Stock <= 0 {
		return false, nil
	}
	*reward.Stock--
	if s.overDecrement {
		*reward.Stock--
	}
	return true, nil
}

func (s *fakeRewardStore) CurrentStock(rewardID uint) (*int, error) {
	return s.rewards[rewardID].Stock, nil
}

func intPointer(v int) *int {
	return &v
}

func TestRedeemHappyPathDecrementsStock(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 8, Stock: intPointer(3), Active: true}
	store.earned[10] = 10

	svc := NewRedemptionService(store, nil, nil, testLogger())

	redemption, err := svc.Redeem(context.Background(), Actor{ID: 10}, 1)
	require.NoError(t, err)
	require.Equal(t, models.RedemptionStatusPending, redemption.Status)
	require.Equal(t, 2, *store.rewards[1].Stock)
}

func TestRedeemStockCheckedBeforeBalance(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 8, Stock: intPointer(1), Active: true}
	store.earned[10] = 10
	ctx := context.Background()

	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Redeem(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	// Only 2 points remain, but the empty stock must be reported first.
	_, err = svc.Redeem(ctx, Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrRewardOutOfStock)
}

func TestRedeemInsufficientPoints(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 8, Stock: intPointer(5), Active: true}
	store.earned[10] = 7

	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Redeem(context.Background(), Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrInsufficientPoints)
	require.Equal(t, 5, *store.rewards[1].Stock)
	require.Empty(t, store.redemptions)
}

func TestRedeemPendingRedemptionsCountAsSpent(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 6, Stock: intPointer(5), Active: true}
	store.earned[10] = 10
	ctx := context.Background()

	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Redeem(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	// 4 points left after the pending redemption.
	_, err = svc.Redeem(ctx, Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestRedeemInactiveReward(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 8, Stock: intPointer(5), Active: false}
	store.earned[10] = 100

	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Redeem(context.Background(), Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrRewardInactive)
}

func TestRedeemUnknownReward(t *testing.T) {
	store := newFakeRewardStore()
	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Redeem(context.Background(), Actor{ID: 10}, 9)
	require.ErrorIs(t, err, ErrRewardNotFound)
}

func TestRedeemUntrackedStockNeverBlocks(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Sticker", PointsCost: 2, Active: true}
	store.earned[10] = 10
	ctx := context.Background()

	svc := NewRedemptionService(store, nil, nil, testLogger())

	for i := 0; i < 3; i++ {
		_, err := svc.Redeem(ctx, Actor{ID: 10}, 1)
		require.NoError(t, err)
	}
}

func TestRedeemNegativeStockRollsBack(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 8, Stock: intPointer(1), Active: true}
	store.earned[10] = 10
	store.overDecrement = true

	svc := NewRedemptionService(store, nil, nil, testLogger())

	// The faulty decrement drives stock from 1 to -1; the invariant re-check
	// must fail the transaction and leave no redemption behind.
	_, err := svc.Redeem(context.Background(), Actor{ID: 10}, 1)
	require.Error(t, err)
	require.True(t, IsConsistencyFault(err))
	require.Empty(t, store.redemptions)
	require.Equal(t, 1, *store.rewards[1].Stock)
}

func TestFulfillRequiresElevation(t *testing.T) {
	store := newFakeRewardStore()
	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Fulfill(context.Background(), Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrNotElevated)
}

func TestFulfillPendingRedemption(t *testing.T) {
	store := newFakeRewardStore()
	store.rewards[1] = &models.Reward{ID: 1, Title: "Mug", PointsCost: 8, Stock: intPointer(1), Active: true}
	store.earned[10] = 10
	ctx := context.Background()

	svc := NewRedemptionService(store, nil, nil, testLogger())

	redemption, err := svc.Redeem(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	fulfilled, err := svc.Fulfill(ctx, Actor{ID: 99, Elevated: true}, redemption.ID)
	require.NoError(t, err)
	require.Equal(t, models.RedemptionStatusFulfilled, fulfilled.Status)
	require.Equal(t, uint(99), *fulfilled.FulfilledBy)

	// Fulfillment is not repeatable.
	_, err = svc.Fulfill(ctx, Actor{ID: 99, Elevated: true}, redemption.ID)
	require.ErrorIs(t, err, ErrRedemptionNotPending)
}

func TestFulfillUnknownRedemption(t *testing.T) {
	store := newFakeRewardStore()
	svc := NewRedemptionService(store, nil, nil, testLogger())

	_, err := svc.Fulfill(context.Background(), Actor{ID: 99, Elevated: true}, 42)
	require.ErrorIs(t, err, ErrRedemptionNotFound)
}
