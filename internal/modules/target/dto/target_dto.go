package dto

import (
	"time"

	"anoa.com/skorprestasi/internal/entity"
)

type CreateTargetInput struct {
	Role          string `json:"role" binding:"required,oneof=mahasiswa dosen_wali"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	MinimumPoints int    `json:"minimum_points" binding:"required,gt=0"`
	Reward        string `json:"reward" binding:"required"`
}

type UpdateTargetInput struct {
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	MinimumPoints *int    `json:"minimum_points,omitempty"`
	Reward        *string `json:"reward,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// TargetProgress is a target decorated with the caller's standing against it.
type TargetProgress struct {
	*entity.Target
	CurrentPoints int        `json:"current_points"`
	Claimable     bool       `json:"claimable"`
	Claimed       bool       `json:"claimed"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
}
