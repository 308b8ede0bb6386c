package dto

import (
	"time"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a new submission.
type SubmissionCreateRequest struct {
	ActivityID  uint  `form:"activity_id" validate:"required,gt=0"`
	EventSlotID *uint `form:"event_slot_id" validate:"omitempty,gt=0"`
}

// VerifyRequest carries the reviewer's optional comment.
type VerifyRequest struct {
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID          uint         `json:"id"`
	StudentID   uint         `json:"student_id"`
	ActivityID  uint         `json:"activity_id"`
	EventSlotID *uint        `json:"event_slot_id"`
	EvidenceURL string       `json:"evidence_url"`
	Status      string       `json:"status"`
	VerifiedBy  *uint        `json:"verified_by"`
	VerifiedAt  *time.Time   `json:"verified_at"`
	Comment     string       `json:"comment"`
	CreatedAt   time.Time    `json:"created_at"`
	Activity    ActivityLite `json:"activity"`
	Student     StudentLite  `json:"student"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	PNR  string `json:"pnr"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		ActivityID:  model.ActivityID,
		EventSlotID: model.EventSlotID,
		EvidenceURL: model.EvidenceURL,
		Status:      model.Status,
		VerifiedBy:  model.VerifiedBy,
		VerifiedAt:  model.VerifiedAt,
		Comment:     model.Comment,
		CreatedAt:   model.CreatedAt,
	}

	if model.Activity.ID != 0 {
		response.Activity = NewActivityLite(model.Activity)
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:   model.Student.ID,
			Name: model.Student.User.Name,
			PNR:  model.Student.PNR,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
