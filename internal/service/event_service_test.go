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

type fakeEventStore struct {
	slot          models.EventSlot
	registrations []models.Registration
	nextID        uint
}

func newFakeEventStore(slot models.EventSlot) *fakeEventStore {
	return &fakeEventStore{slot: slot, nextID: 1}
}

func (s *fakeEventStore) GetSlot(ctx context.Context, id uint) (models.EventSlot, error) {
	if id != s.slot.ID {
		return models.EventSlot{}, gorm.ErrRecordNotFound
	}
	return s.slot, nil
}

func (s *fakeEventStore) GetRegistration(ctx context.Context, id uint) (models.Registration, error) {
	return s.findRegistration(id)
}

func (s *fakeEventStore) ListUpcoming(ctx context.Context, includeFull bool, now time.Time) ([]models.EventSlot, error) {
	if s.slot.IsOver(now) || (!includeFull && s.slot.IsFull()) {
		return nil, nil
	}
	return []models.EventSlot{s.slot}, nil
}

func (s *fakeEventStore) ListForUser(ctx context.Context, userID uint) ([]models.Registration, error) {
	var result []models.Registration
	for _, reg := range s.registrations {
		if reg.UserID == userID && reg.Status != models.RegistrationStatusCanceled {
			result = append(result, reg)
		}
	}
	return result, nil
}

func (s *fakeEventStore) Atomically(ctx context.Context, fn func(tx repository.EventTx) error) error {
	return fn(fakeEventTx{s})
}

// fakeEventTx adapts the store to the tx contract, whose lookups carry no
// context.
type fakeEventTx struct {
	*fakeEventStore
}

func (t fakeEventTx) GetRegistration(id uint) (models.Registration, error) {
	return t.findRegistration(id)
}

func (s *fakeEventStore) LockSlot(id uint) (models.EventSlot, error) {
	if id != s.slot.ID {
		return models.EventSlot{}, gorm.ErrRecordNotFound
	}
	return s.slot, nil
}

func (s *fakeEventStore) RegistrationExists(eventID, userID uint) (bool, error) {
	for _, reg := range s.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeEventStore) CreateRegistration(reg *models.Registration) error {
	reg.ID = s.nextID
	reg.CreatedAt = time.Now().Add(time.Duration(s.nextID) * time.Millisecond)
	s.nextID++
	s.registrations = append(s.registrations, *reg)
	return nil
}

func (s *fakeEventStore) SetRegistrationStatus(id uint, status string) error {
	for i := range s.registrations {
		if s.registrations[i].ID == id {
			s.registrations[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeEventStore) AdjustRegisteredCount(eventID uint, delta int) error {
	s.slot.RegisteredCount += delta
	return nil
}

func (s *fakeEventStore) EarliestWaitlisted(eventID uint) (*models.Registration, error) {
	for i := range s.registrations {
		if s.registrations[i].EventID == eventID && s.registrations[i].Status == models.RegistrationStatusWaitlisted {
			reg := s.registrations[i]
			return &reg, nil
		}
	}
	return nil, nil
}

func (s *fakeEventStore) findRegistration(id uint) (models.Registration, error) {
	for _, reg := range s.registrations {
		if reg.ID == id {
			return reg, nil
		}
	}
	return models.Registration{}, gorm.ErrRecordNotFound
}

func upcomingSlot(max int) models.EventSlot {
	return models.EventSlot{
		ID:              1,
		ActivityID:      1,
		StartAt:         time.Now().Add(time.Hour),
		EndAt:           time.Now().Add(2 * time.Hour),
		MaxParticipants: max,
	}
}

func TestEventServiceRegisterAndWaitlist(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(1))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	first, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusRegistered, first.Status)
	require.Equal(t, 1, store.slot.RegisteredCount)

	second, err := svc.Register(ctx, Actor{ID: 11}, 1)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusWaitlisted, second.Status)
	require.Equal(t, 1, store.slot.RegisteredCount)
}

func TestEventServiceRegisterDuplicate(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(5))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	_, err = svc.Register(ctx, Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestEventServiceRegisterCanceledStillBlocks(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(5))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	reg, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, Actor{ID: 10}, reg.ID))

	_, err = svc.Register(ctx, Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestEventServiceRegisterEnded(t *testing.T) {
	slot := upcomingSlot(5)
	slot.StartAt = time.Now().Add(-2 * time.Hour)
	slot.EndAt = time.Now().Add(-time.Hour)
	store := newFakeEventStore(slot)
	svc := NewEventService(store, testLogger())

	_, err := svc.Register(context.Background(), Actor{ID: 10}, 1)
	require.ErrorIs(t, err, ErrEventEnded)
}

func TestEventServiceRegisterUnknownSlot(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(5))
	svc := NewEventService(store, testLogger())

	_, err := svc.Register(context.Background(), Actor{ID: 10}, 99)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventServiceCancelPromotesEarliestWaitlisted(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(1))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	holder, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	waitA, err := svc.Register(ctx, Actor{ID: 11}, 1)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusWaitlisted, waitA.Status)

	waitB, err := svc.Register(ctx, Actor{ID: 12}, 1)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusWaitlisted, waitB.Status)

	require.NoError(t, svc.Cancel(ctx, Actor{ID: 10}, holder.ID))

	promoted, err := store.findRegistration(waitA.ID)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusRegistered, promoted.Status)

	still, err := store.findRegistration(waitB.ID)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusWaitlisted, still.Status)

	require.Equal(t, 1, store.slot.RegisteredCount)
}

func TestEventServiceCancelWaitlistedPromotesNobody(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(1))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	waitA, err := svc.Register(ctx, Actor{ID: 11}, 1)
	require.NoError(t, err)

	waitB, err := svc.Register(ctx, Actor{ID: 12}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, Actor{ID: 11}, waitA.ID))

	still, err := store.findRegistration(waitB.ID)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusWaitlisted, still.Status)
	require.Equal(t, 1, store.slot.RegisteredCount)
}

func TestEventServiceCancelRequiresOwnership(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(5))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	reg, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	err = svc.Cancel(ctx, Actor{ID: 11}, reg.ID)
	require.ErrorIs(t, err, ErrNotRegistrationOwner)

	// Staff may cancel on behalf of the owner.
	require.NoError(t, svc.Cancel(ctx, Actor{ID: 11, Elevated: true}, reg.ID))
}

func TestEventServiceCancelIsIdempotent(t *testing.T) {
	store := newFakeEventStore(upcomingSlot(1))
	svc := NewEventService(store, testLogger())
	ctx := context.Background()

	reg, err := svc.Register(ctx, Actor{ID: 10}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, Actor{ID: 10}, reg.ID))
	require.NoError(t, svc.Cancel(ctx, Actor{ID: 10}, reg.ID))
	require.Equal(t, 0, store.slot.RegisteredCount)
}
