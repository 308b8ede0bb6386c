package dto

import (
	"time"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// EventSlotResponse is returned to API clients when browsing events.
type EventSlotResponse struct {
	ID              uint         `json:"id"`
	ActivityID      uint         `json:"activity_id"`
	StartAt         time.Time    `json:"start_at"`
	EndAt           time.Time    `json:"end_at"`
	MaxParticipants int          `json:"max_participants"`
	RegisteredCount int          `json:"registered_count"`
	Location        string       `json:"location"`
	Activity        ActivityLite `json:"activity"`
}

// ActivityLite summarizes an activity in event and submission responses.
type ActivityLite struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Tier   int    `json:"tier"`
	Points int    `json:"points"`
}

// RegistrationResponse is returned after registering for an event slot.
type RegistrationResponse struct {
	ID        uint      `json:"id"`
	EventID   uint      `json:"event_id"`
	UserID    uint      `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEventSlotResponse converts an EventSlot model into a DTO.
func NewEventSlotResponse(model models.EventSlot) EventSlotResponse {
	response := EventSlotResponse{
		ID:              model.ID,
		ActivityID:      model.ActivityID,
		StartAt:         model.StartAt,
		EndAt:           model.EndAt,
		MaxParticipants: model.MaxParticipants,
		RegisteredCount: model.RegisteredCount,
		Location:        model.Location,
	}

	if model.Activity.ID != 0 {
		response.Activity = NewActivityLite(model.Activity)
	}

	return response
}

// NewEventSlotResponseSlice converts event slot models into DTOs.
func NewEventSlotResponseSlice(slots []models.EventSlot) []EventSlotResponse {
	responses := make([]EventSlotResponse, 0, len(slots))
	for _, slot := range slots {
		responses = append(responses, NewEventSlotResponse(slot))
	}

	return responses
}

// NewActivityLite summarizes an activity model.
func NewActivityLite(model models.Activity) ActivityLite {
	return ActivityLite{
		ID:     model.ID,
		Title:  model.Title,
		Tier:   model.Tier,
		Points: model.Points(),
	}
}

// NewRegistrationResponse converts a Registration model into a DTO.
func NewRegistrationResponse(model models.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:        model.ID,
		EventID:   model.EventID,
		UserID:    model.UserID,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
	}
}
