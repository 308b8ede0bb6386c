package models

import "time"

// EventSlot is a scheduled occurrence of an activity with bounded capacity.
// RegisteredCount is denormalized and only ever changes inside the capacity
// manager's locked transaction.
type EventSlot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ActivityID      uint      `gorm:"not null" json:"activity_id"`
	StartAt         time.Time `gorm:"not null" json:"start_at"`
	EndAt           time.Time `gorm:"not null;check:end_at > start_at" json:"end_at"`
	MaxParticipants int       `gorm:"not null" json:"max_participants"`
	RegisteredCount int       `gorm:"not null;default:0;check:registered_count >= 0" json:"registered_count"`
	Location        string    `gorm:"size:200" json:"location"`
	Notes           string    `gorm:"type:text" json:"notes"`
	Activity        Activity  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"activity"`
}

// IsFull reports whether the slot has no free seats left.
func (e EventSlot) IsFull() bool {
	return e.RegisteredCount >= e.MaxParticipants
}

// IsOver reports whether the slot ended before the given instant.
func (e EventSlot) IsOver(now time.Time) bool {
	return now.After(e.EndAt)
}

// Registration links a user to an event slot. The (event, user) pair is unique
// regardless of status, so a canceled registration blocks re-registration.
type Registration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;uniqueIndex:uniq_event_user" json:"event_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uniq_event_user" json:"user_id"`
	Status    string    `gorm:"size:12;not null;default:registered" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Event     EventSlot `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"event"`
}

const (
	// RegistrationStatusRegistered holds a confirmed seat.
	RegistrationStatusRegistered = "registered"
	// RegistrationStatusWaitlisted queues for promotion when a seat frees up.
	RegistrationStatusWaitlisted = "waitlisted"
	// RegistrationStatusCanceled released its seat or queue position.
	RegistrationStatusCanceled = "canceled"
)
