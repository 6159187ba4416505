package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CampaignRepository manages durable Campaign records. All status-changing
// methods are guarded compare-and-set updates: the transition is applied only
// if the stored status still permits it, so concurrent operations on the same
// campaign cannot both win. Guard failures return ErrInvalidState; a missing
// campaign returns ErrNotFound.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	List(ctx context.Context, status CampaignStatus, offset, limit int) ([]*Campaign, int, error)

	// Schedule moves a draft campaign to scheduled with the given send time.
	Schedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) error
	// Pause moves a sending or scheduled campaign to paused, recording
	// pausedAt, pausedBy and the reason.
	Pause(ctx context.Context, id uuid.UUID, reason, actor string, pausedAt time.Time) error
	// Resume moves a paused campaign back to sending, clearing pausedAt and
	// recording resumedAt/resumedBy.
	Resume(ctx context.Context, id uuid.UUID, actor string, resumedAt time.Time) error
	// Cancel moves any non-terminal campaign to cancelled.
	Cancel(ctx context.Context, id uuid.UUID) error
	// MarkFailed moves a sending campaign to failed with a reason.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// AcquireDue atomically claims scheduled campaigns whose scheduledAt has
	// passed, moving them to sending, and returns the claimed rows. A second
	// call with no time advancement claims nothing. Returns ErrNoDueCampaigns
	// when the claim set is empty.
	AcquireDue(ctx context.Context, dueTime time.Time, limit int) ([]*Campaign, error)
	// CompleteSendingWithoutPending completes every sending campaign that has
	// zero pending delivery attempts left and returns the completed IDs.
	CompleteSendingWithoutPending(ctx context.Context) ([]uuid.UUID, error)
}

// DeliveryAttemptRepository manages the delivery records owned by a campaign.
type DeliveryAttemptRepository interface {
	// BulkCreate inserts pending attempts for a campaign's recipients in one
	// transaction.
	BulkCreate(ctx context.Context, attempts []*DeliveryAttempt) error
	// CountByStatus aggregates attempt counts for one campaign.
	CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[DeliveryStatus]int, error)
	// RequeueFailed flips failed attempts with attemptCount < maxRetries back
	// to pending in a single statement, incrementing attemptCount and clearing
	// lastError. Returns the number of attempts requeued.
	RequeueFailed(ctx context.Context, campaignID uuid.UUID, maxRetries int) (int, error)
}
