package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/observability"
	"github.com/noah-isme/campus-engage-api/internal/repository"
)

// EventService manages event slot capacity, waitlisting and promotion.
type EventService interface {
	Register(ctx context.Context, actor Actor, eventID uint) (dto.RegistrationResponse, error)
	Cancel(ctx context.Context, actor Actor, registrationID uint) error
	ListUpcoming(ctx context.Context, includeFull bool) ([]dto.EventSlotResponse, error)
	ListRegistrations(ctx context.Context, actor Actor) ([]dto.RegistrationResponse, error)
}

type eventService struct {
	repo   repository.EventRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewEventService constructs the event capacity service.
func NewEventService(repo repository.EventRepository, logger zerolog.Logger) EventService {
	return &eventService{
		repo:   repo,
		logger: logger.With().Str("component", "event_service").Logger(),
		now:    time.Now,
	}
}

// Register books a seat on the slot or queues the actor on the waitlist when
// the slot is full. The slot row lock serializes concurrent registrations, so
// the registered count can never overshoot capacity.
func (s *eventService) Register(ctx context.Context, actor Actor, eventID uint) (dto.RegistrationResponse, error) {
	var registration models.Registration

	err := s.repo.Atomically(ctx, func(tx repository.EventTx) error {
		slot, err := tx.LockSlot(eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if slot.IsOver(s.now()) {
			return ErrEventEnded
		}

		exists, err := tx.RegistrationExists(slot.ID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRegistration
		}

		status := models.RegistrationStatusRegistered
		if slot.IsFull() {
			status = models.RegistrationStatusWaitlisted
		}

		registration = models.Registration{
			EventID: slot.ID,
			UserID:  actor.ID,
			Status:  status,
		}
		if err := tx.CreateRegistration(&registration); err != nil {
			return err
		}

		if status == models.RegistrationStatusRegistered {
			return tx.AdjustRegisteredCount(slot.ID, 1)
		}

		return nil
	})
	if err != nil {
		observability.Registrations().WithLabelValues("rejected").Inc()
		return dto.RegistrationResponse{}, err
	}

	observability.Registrations().WithLabelValues(registration.Status).Inc()
	s.logger.Info().
		Uint("event_id", eventID).
		Uint("user_id", actor.ID).
		Str("status", registration.Status).
		Msg("event registration created")

	return dto.NewRegistrationResponse(registration), nil
}

// Cancel releases the actor's registration. Freeing a registered seat promotes
// the earliest-created waitlisted registration, keeping the registered count
// unchanged overall. Cancelling a waitlisted registration promotes nobody.
func (s *eventService) Cancel(ctx context.Context, actor Actor, registrationID uint) error {
	current, err := s.repo.GetRegistration(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}

	if current.UserID != actor.ID && !actor.Elevated {
		return ErrNotRegistrationOwner
	}

	promoted := false
	err = s.repo.Atomically(ctx, func(tx repository.EventTx) error {
		if _, err := tx.LockSlot(current.EventID); err != nil {
			return err
		}

		// Re-read under the lock; status may have changed since the
		// ownership check.
		reg, err := tx.GetRegistration(registrationID)
		if err != nil {
			return err
		}

		if reg.Status == models.RegistrationStatusCanceled {
			return nil
		}

		wasRegistered := reg.Status == models.RegistrationStatusRegistered
		if err := tx.SetRegistrationStatus(reg.ID, models.RegistrationStatusCanceled); err != nil {
			return err
		}

		if !wasRegistered {
			return nil
		}

		if err := tx.AdjustRegisteredCount(reg.EventID, -1); err != nil {
			return err
		}

		next, err := tx.EarliestWaitlisted(reg.EventID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		if err := tx.SetRegistrationStatus(next.ID, models.RegistrationStatusRegistered); err != nil {
			return err
		}
		if err := tx.AdjustRegisteredCount(reg.EventID, 1); err != nil {
			return err
		}

		promoted = true
		return nil
	})
	if err != nil {
		return err
	}

	if promoted {
		observability.WaitlistPromotions().Inc()
	}

	s.logger.Info().
		Uint("registration_id", registrationID).
		Uint("user_id", actor.ID).
		Bool("promoted_waitlist", promoted).
		Msg("event registration canceled")

	return nil
}

func (s *eventService) ListUpcoming(ctx context.Context, includeFull bool) ([]dto.EventSlotResponse, error) {
	slots, err := s.repo.ListUpcoming(ctx, includeFull, s.now())
	if err != nil {
		return nil, err
	}

	return dto.NewEventSlotResponseSlice(slots), nil
}

func (s *eventService) ListRegistrations(ctx context.Context, actor Actor) ([]dto.RegistrationResponse, error) {
	registrations, err := s.repo.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.RegistrationResponse, 0, len(registrations))
	for _, registration := range registrations {
		responses = append(responses, dto.NewRegistrationResponse(registration))
	}

	return responses, nil
}
