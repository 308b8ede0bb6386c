package models

import "time"

// Activity is a point-earning engagement opportunity. The tier doubles as the
// point value, so the award amount is derived and never stored separately.
type Activity struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Title                string    `gorm:"size:120;not null" json:"title"`
	Description          string    `gorm:"type:text" json:"description"`
	Tier                 int       `gorm:"not null;check:tier IN (2,5,8)" json:"tier"`
	RequiresProof        bool      `gorm:"not null;default:false" json:"requires_proof"`
	MonthlyCapPerStudent *int      `json:"monthly_cap_per_student"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Points returns the award granted when a submission for this activity is
// approved.
func (a Activity) Points() int {
	return a.Tier
}
