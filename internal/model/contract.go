package model

import "time"

// Contract binds an onboarded supplier to an agreement.
type Contract struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"application_id"`
	Title         string         `json:"title"`
	StartsAt      time.Time      `json:"starts_at"`
	EndsAt        time.Time      `json:"ends_at"`
	Status        ContractStatus `json:"status"`
	History       []HistoryEntry `json:"history"`
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
