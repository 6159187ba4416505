package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
	"github.com/quillworks/campaign-service/internal/platform/messagebroker"
)

// SubjectDeliveriesRequeued is published after a retry batch so the send
// pipeline can wake up instead of waiting for its next poll.
const SubjectDeliveriesRequeued = "campaign.deliveries.requeued"

// RetryResult is the outcome of a retry request. Zero eligible attempts is a
// success with RetriedCount=0, not an error.
type RetryResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RetriedCount int    `json:"retried_count"`
}

// DeliveriesRequeuedEvent is the NATS payload for SubjectDeliveriesRequeued.
type DeliveriesRequeuedEvent struct {
	CampaignID   uuid.UUID `json:"campaign_id"`
	RetriedCount int       `json:"retried_count"`
	RequeuedAt   time.Time `json:"requeued_at"`
}

// RetryCoordinator re-queues bounded-count failed deliveries. It only flips
// attempts back to pending; the actual re-send is the pipeline's job.
type RetryCoordinator struct {
	campaignRepo domain.CampaignRepository
	attemptRepo  domain.DeliveryAttemptRepository
	publisher    messagebroker.Publisher
	maxRetryCap  int
	logger       *slog.Logger
}

func NewRetryCoordinator(
	campaignRepo domain.CampaignRepository,
	attemptRepo domain.DeliveryAttemptRepository,
	publisher messagebroker.Publisher,
	maxRetryCap int,
	logger *slog.Logger,
) *RetryCoordinator {
	return &RetryCoordinator{
		campaignRepo: campaignRepo,
		attemptRepo:  attemptRepo,
		publisher:    publisher,
		maxRetryCap:  maxRetryCap,
		logger:       logger,
	}
}

// RetryFailedDeliveries requeues failed attempts with attemptCount below
// maxRetries for the given campaign. maxRetries <= 0 uses the configured cap;
// values above the cap are rejected.
func (c *RetryCoordinator) RetryFailedDeliveries(ctx context.Context, campaignID uuid.UUID, maxRetries int) (*RetryResult, error) {
	if maxRetries <= 0 {
		maxRetries = c.maxRetryCap
	}
	if maxRetries > c.maxRetryCap {
		return nil, fmt.Errorf("%w: max_retries must not exceed %d", domain.ErrValidation, c.maxRetryCap)
	}

	if _, err := c.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	retried, err := c.attemptRepo.RequeueFailed(ctx, campaignID, maxRetries)
	if err != nil {
		return nil, err
	}
	retriedDeliveriesCounter.Add(float64(retried))

	if retried == 0 {
		return &RetryResult{Success: true, Message: "no failed deliveries eligible for retry", RetriedCount: 0}, nil
	}

	event := DeliveriesRequeuedEvent{
		CampaignID:   campaignID,
		RetriedCount: retried,
		RequeuedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to marshal requeue event", "error", err, "campaign_id", campaignID)
	} else if err := c.publisher.Publish(ctx, SubjectDeliveriesRequeued, data); err != nil {
		// The attempts are already pending; the pipeline's poll will pick
		// them up even if the wake-up notification is lost.
		c.logger.WarnContext(ctx, "Failed to publish requeue event", "error", err, "campaign_id", campaignID)
	}

	c.logger.InfoContext(ctx, "Requeued failed deliveries", "campaign_id", campaignID, "count", retried, "max_retries", maxRetries)
	return &RetryResult{
		Success:      true,
		Message:      fmt.Sprintf("requeued %d failed deliveries", retried),
		RetriedCount: retried,
	}, nil
}
