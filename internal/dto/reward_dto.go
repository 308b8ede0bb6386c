package dto

import (
	"time"

	"github.com/noah-isme/campus-engage-api/internal/models"
)

// RewardResponse is returned to API clients when browsing the catalog.
type RewardResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PointsCost  int    `json:"points_cost"`
	Stock       *int   `json:"stock"`
	Active      bool   `json:"active"`
}

// RedemptionResponse is returned after redeeming or fulfilling.
type RedemptionResponse struct {
	ID          uint       `json:"id"`
	UserID      uint       `json:"user_id"`
	RewardID    uint       `json:"reward_id"`
	Status      string     `json:"status"`
	FulfilledBy *uint      `json:"fulfilled_by"`
	FulfilledAt *time.Time `json:"fulfilled_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewRewardResponse converts a Reward model into a DTO.
func NewRewardResponse(model models.Reward) RewardResponse {
	return RewardResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		PointsCost:  model.PointsCost,
		Stock:       model.Stock,
		Active:      model.Active,
	}
}

// NewRewardResponseSlice converts reward models into DTOs.
func NewRewardResponseSlice(rewards []models.Reward) []RewardResponse {
	responses := make([]RewardResponse, 0, len(rewards))
	for _, reward := range rewards {
		responses = append(responses, NewRewardResponse(reward))
	}

	return responses
}

// NewRedemptionResponse converts a Redemption model into a DTO.
func NewRedemptionResponse(model models.Redemption) RedemptionResponse {
	return RedemptionResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		RewardID:    model.RewardID,
		Status:      model.Status,
		FulfilledBy: model.FulfilledBy,
		FulfilledAt: model.FulfilledAt,
		CreatedAt:   model.CreatedAt,
	}
}
