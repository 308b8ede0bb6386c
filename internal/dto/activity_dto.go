package dto

import (
	"time"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// ActivityCreateRequest creates an activity together with its first event slot.
type ActivityCreateRequest struct {
	Title                string    `json:"title" validate:"required,min=3,max=120"`
	Description          string    `json:"description" validate:"omitempty,max=4000"`
	Tier                 int       `json:"tier" validate:"required,oneof=2 5 8"`
	RequiresProof        bool      `json:"requires_proof"`
	MonthlyCapPerStudent *int      `json:"monthly_cap_per_student" validate:"omitempty,gt=0"`
	StartAt              time.Time `json:"start_at" validate:"required"`
	EndAt                time.Time `json:"end_at" validate:"required"`
	MaxParticipants      int       `json:"max_participants" validate:"required,gt=0"`
	Location             string    `json:"location" validate:"omitempty,max=200"`
}

// ActivityResponse is returned to API clients when managing activities.
type ActivityResponse struct {
	ID                   uint      `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Tier                 int       `json:"tier"`
	Points               int       `json:"points"`
	RequiresProof        bool      `json:"requires_proof"`
	MonthlyCapPerStudent *int      `json:"monthly_cap_per_student"`
	CreatedAt            time.Time `json:"created_at"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:                   model.ID,
		Title:                model.Title,
		Description:          model.Description,
		Tier:                 model.Tier,
		Points:               model.Points(),
		RequiresProof:        model.RequiresProof,
		MonthlyCapPerStudent: model.MonthlyCapPerStudent,
		CreatedAt:            model.CreatedAt,
	}
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}
