package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled" // Scheduled for a future send
	StatusSending   CampaignStatus = "sending"   // Picked up by the scheduler, deliveries in flight
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed" // Terminal
	StatusFailed    CampaignStatus = "failed"    // Terminal
	StatusCancelled CampaignStatus = "cancelled" // Terminal
)

// IsTerminal reports whether no further mutation is permitted.
func (s CampaignStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Campaign is a single newsletter send operation targeting a set of recipients.
type Campaign struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Status      CampaignStatus `json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	PausedAt    *time.Time     `json:"paused_at,omitempty"`
	ResumedAt   *time.Time     `json:"resumed_at,omitempty"`
	PauseReason string         `json:"pause_reason,omitempty"`
	CreatedBy   string         `json:"created_by"`
	PausedBy    string         `json:"paused_by,omitempty"`
	ResumedBy   string         `json:"resumed_by,omitempty"`
	FailReason  string         `json:"fail_reason,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewCampaign creates a draft campaign owned by the given actor.
func NewCampaign(id uuid.UUID, title, createdBy string) *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		ID:        id,
		Title:     title,
		Status:    StatusDraft,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CampaignStatistics aggregates delivery attempt counts for one campaign.
type CampaignStatistics struct {
	CampaignID  uuid.UUID `json:"campaign_id"`
	Pending     int       `json:"pending"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	Total       int       `json:"total"`
	PercentSent float64   `json:"percent_sent"`
}
