package models

import "time"

// Submission is a student's claim of participation in an activity, optionally
// backed by evidence and tied to an event slot.
type Submission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null" json:"student_id"`
	ActivityID  uint       `gorm:"not null" json:"activity_id"`
	EventSlotID *uint      `json:"event_slot_id"`
	EvidenceURL string     `gorm:"size:512" json:"evidence_url"`
	Status      string     `gorm:"size:10;not null;default:pending" json:"status"`
	VerifiedBy  *uint      `json:"verified_by"`
	VerifiedAt  *time.Time `json:"verified_at"`
	Comment     string     `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time  `json:"created_at"`
	Student     Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Activity    Activity   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"activity"`
}

const (
	// SubmissionStatusPending awaits review.
	SubmissionStatusPending = "pending"
	// SubmissionStatusApproved is terminal and has a matching ledger entry.
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected is terminal with no ledger effect.
	SubmissionStatusRejected = "rejected"
)

// IsResolved reports whether the submission left the pending state.
func (s Submission) IsResolved() bool {
	return s.Status != SubmissionStatusPending
}
