package models

import "time"

// User is an account that can authenticate against the API. Staff accounts
// carry elevated verification and fulfillment rights.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Email     string    `gorm:"size:254;unique;not null" json:"email"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Student is the engagement profile linked one-to-one with a user account.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	PNR       string    `gorm:"size:20;unique;not null" json:"pnr"`
	Role      string    `gorm:"size:10;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

const (
	// StudentRoleStudent is the default profile role.
	StudentRoleStudent = "student"
	// StudentRoleVolunteer may verify other students' submissions.
	StudentRoleVolunteer = "volunteer"
)

// IsVolunteer reports whether the profile carries verification rights.
func (s Student) IsVolunteer() bool {
	return s.Role == StudentRoleVolunteer
}
