package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// EventTx exposes the mutations available while holding the slot row lock.
// All methods run inside the transaction opened by Atomically.
type EventTx interface {
	LockSlot(id uint) (models.EventSlot, error)
	GetRegistration(id uint) (models.Registration, error)
	RegistrationExists(eventID, userID uint) (bool, error)
	CreateRegistration(reg *models.Registration) error
	SetRegistrationStatus(id uint, status string) error
	AdjustRegisteredCount(eventID uint, delta int) error
	EarliestWaitlisted(eventID uint) (*models.Registration, error)
}

// EventRepository defines data operations for event slots and registrations.
type EventRepository interface {
	GetSlot(ctx context.Context, id uint) (models.EventSlot, error)
	GetRegistration(ctx context.Context, id uint) (models.Registration, error)
	ListUpcoming(ctx context.Context, includeFull bool, now time.Time) ([]models.EventSlot, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Registration, error)
	Atomically(ctx context.Context, fn func(tx EventTx) error) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository instantiates the repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetSlot(ctx context.Context, id uint) (models.EventSlot, error) {
	var slot models.EventSlot
	if err := r.db.WithContext(ctx).Preload("Activity").First(&slot, id).Error; err != nil {
		return models.EventSlot{}, err
	}

	return slot, nil
}

func (r *eventRepository) GetRegistration(ctx context.Context, id uint) (models.Registration, error) {
	var reg models.Registration
	if err := r.db.WithContext(ctx).First(&reg, id).Error; err != nil {
		return models.Registration{}, err
	}

	return reg, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, includeFull bool, now time.Time) ([]models.EventSlot, error) {
	query := r.db.WithContext(ctx).Model(&models.EventSlot{}).
		Preload("Activity").
		Where("end_at >= ?", now)

	if !includeFull {
		query = query.Where("registered_count < max_participants")
	}

	var slots []models.EventSlot
	if err := query.Order("start_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *eventRepository) ListForUser(ctx context.Context, userID uint) ([]models.Registration, error) {
	var regs []models.Registration
	if err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Activity").
		Where("user_id = ?", userID).
		Where("status <> ?", models.RegistrationStatusCanceled).
		Order("created_at DESC").
		Find(&regs).Error; err != nil {
		return nil, err
	}

	return regs, nil
}

// Atomically runs fn inside a single transaction. The slot lock taken via
// LockSlot serializes concurrent register/cancel operations on the same slot
// until the transaction commits or rolls back.
func (r *eventRepository) Atomically(ctx context.Context, fn func(tx EventTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&eventTx{db: tx})
	})
}

type eventTx struct {
	db *gorm.DB
}

func (t *eventTx) LockSlot(id uint) (models.EventSlot, error) {
	var slot models.EventSlot
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&slot, id).Error; err != nil {
		return models.EventSlot{}, err
	}

	return slot, nil
}

func (t *eventTx) GetRegistration(id uint) (models.Registration, error) {
	var reg models.Registration
	if err := t.db.First(&reg, id).Error; err != nil {
		return models.Registration{}, err
	}

	return reg, nil
}

func (t *eventTx) RegistrationExists(eventID, userID uint) (bool, error) {
	var count int64
	if err := t.db.Model(&models.Registration{}).
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (t *eventTx) CreateRegistration(reg *models.Registration) error {
	return t.db.Create(reg).Error
}

func (t *eventTx) SetRegistrationStatus(id uint, status string) error {
	return t.db.Model(&models.Registration{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (t *eventTx) AdjustRegisteredCount(eventID uint, delta int) error {
	return t.db.Model(&models.EventSlot{}).
		Where("id = ?", eventID).
		UpdateColumn("registered_count", gorm.Expr("registered_count + ?", delta)).Error
}

func (t *eventTx) EarliestWaitlisted(eventID uint) (*models.Registration, error) {
	var reg models.Registration
	err := t.db.
		Where("event_id = ?", eventID).
		Where("status = ?", models.RegistrationStatusWaitlisted).
		Order("created_at ASC, id ASC").
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &reg, nil
}
