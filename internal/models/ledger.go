package models

import "time"

// PointLedger is an append-only grant of points. Rows are never updated or
// deleted. The unique (source, reference_id) index is the idempotency barrier
// that prevents double-award when two workers approve the same submission.
type PointLedger struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_ledger_user_created" json:"user_id"`
	ActivityID  uint      `gorm:"not null" json:"activity_id"`
	Points      int       `gorm:"not null" json:"points"`
	Source      string    `gorm:"size:16;not null;uniqueIndex:uniq_source_reference" json:"source"`
	ReferenceID string    `gorm:"size:64;not null;uniqueIndex:uniq_source_reference" json:"reference_id"`
	CreatedAt   time.Time `gorm:"index:idx_ledger_user_created" json:"created_at"`
}

const (
	// LedgerSourceSubmission marks grants issued by submission approval.
	LedgerSourceSubmission = "submission"
	// LedgerSourceManual marks grants issued by staff adjustment.
	LedgerSourceManual = "manual"
)
