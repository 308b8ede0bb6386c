package dto

import (
	"time"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// PointsSummaryResponse reports a user's ledger total within a window.
type PointsSummaryResponse struct {
	UserID uint       `json:"user_id"`
	Total  int        `json:"total"`
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
}

// LeaderboardEntry is one ranked standing.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Total  int    `json:"total"`
}

// LeaderboardResponse contains ranked standings for a window.
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
	Start   *time.Time         `json:"start,omitempty"`
	End     *time.Time         `json:"end,omitempty"`
}

// LedgerEntryResponse is one grant in a user's point history.
type LedgerEntryResponse struct {
	ID          uint      `json:"id"`
	ActivityID  uint      `json:"activity_id"`
	Points      int       `json:"points"`
	Source      string    `json:"source"`
	ReferenceID string    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLedgerEntryResponse maps a ledger row into its response shape.
func NewLedgerEntryResponse(entry models.PointLedger) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          entry.ID,
		ActivityID:  entry.ActivityID,
		Points:      entry.Points,
		Source:      entry.Source,
		ReferenceID: entry.ReferenceID,
		CreatedAt:   entry.CreatedAt,
	}
}

// NewLedgerEntryResponseSlice maps ledger rows into response shapes.
func NewLedgerEntryResponseSlice(entries []models.PointLedger) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewLedgerEntryResponse(entry))
	}
	return responses
}
