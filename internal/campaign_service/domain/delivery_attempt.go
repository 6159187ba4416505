package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus represents the state of a single recipient delivery.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending" // Eligible for pickup by the send pipeline
	DeliverySent    DeliveryStatus = "sent"    // Immutable once reached
	DeliveryFailed  DeliveryStatus = "failed"
)

// DeliveryAttempt is one recipient-specific send record within a campaign.
// A campaign exclusively owns its attempts; deleting the campaign cascades.
type DeliveryAttempt struct {
	ID              uuid.UUID      `json:"id"`
	CampaignID      uuid.UUID      `json:"campaign_id"`
	Recipient       string         `json:"recipient"`
	Status          DeliveryStatus `json:"status"`
	AttemptCount    int            `json:"attempt_count"`
	LastError       string         `json:"last_error,omitempty"`
	LastAttemptedAt *time.Time     `json:"last_attempted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewDeliveryAttempt creates a pending attempt for one recipient.
func NewDeliveryAttempt(id, campaignID uuid.UUID, recipient string) *DeliveryAttempt {
	now := time.Now().UTC()
	return &DeliveryAttempt{
		ID:           id,
		CampaignID:   campaignID,
		Recipient:    recipient,
		Status:       DeliveryPending,
		AttemptCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
