package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
)

// OperationResult is the structured outcome of a lifecycle operation. Illegal
// transitions are reported here with Success=false rather than as errors, so
// callers can branch without unwrapping; only not-found, validation and
// persistence failures surface as errors.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LifecycleService is the campaign state machine. It is the sole mutator of
// Campaign.status; every transition goes through a guarded repository update.
type LifecycleService struct {
	campaignRepo domain.CampaignRepository
	attemptRepo  domain.DeliveryAttemptRepository
	logger       *slog.Logger
}

func NewLifecycleService(
	campaignRepo domain.CampaignRepository,
	attemptRepo domain.DeliveryAttemptRepository,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		campaignRepo: campaignRepo,
		attemptRepo:  attemptRepo,
		logger:       logger,
	}
}

// CreateCampaign creates a draft campaign and seeds one pending delivery
// attempt per recipient.
func (s *LifecycleService) CreateCampaign(ctx context.Context, title string, recipients []string, actor string) (*domain.Campaign, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	campaign := domain.NewCampaign(uuid.New(), title, actor)
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}

	attempts := make([]*domain.DeliveryAttempt, 0, len(recipients))
	for _, recipient := range recipients {
		attempts = append(attempts, domain.NewDeliveryAttempt(uuid.New(), campaign.ID, recipient))
	}
	if err := s.attemptRepo.BulkCreate(ctx, attempts); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Campaign created", "campaign_id", campaign.ID, "recipients", len(recipients), "actor", actor)
	return campaign, nil
}

// Schedule moves a draft campaign to scheduled. The send time must be in the
// future at the moment of scheduling.
func (s *LifecycleService) Schedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, actor string) (*OperationResult, error) {
	if !scheduledAt.After(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", domain.ErrValidation)
	}

	err := s.campaignRepo.Schedule(ctx, id, scheduledAt.UTC())
	if result, err := s.foldTransition(ctx, "schedule", id, actor, err); result != nil || err != nil {
		return result, err
	}

	return &OperationResult{Success: true, Message: "campaign scheduled"}, nil
}

// Pause suspends a sending or scheduled campaign, recording who paused it and why.
func (s *LifecycleService) Pause(ctx context.Context, id uuid.UUID, reason, actor string) (*OperationResult, error) {
	err := s.campaignRepo.Pause(ctx, id, reason, actor, time.Now().UTC())
	if result, err := s.foldTransition(ctx, "pause", id, actor, err); result != nil || err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "Campaign paused", "campaign_id", id, "actor", actor, "reason", reason)
	return &OperationResult{Success: true, Message: "campaign paused"}, nil
}

// Resume returns a paused campaign to sending and clears pausedAt.
func (s *LifecycleService) Resume(ctx context.Context, id uuid.UUID, actor string) (*OperationResult, error) {
	err := s.campaignRepo.Resume(ctx, id, actor, time.Now().UTC())
	if result, err := s.foldTransition(ctx, "resume", id, actor, err); result != nil || err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "Campaign resumed", "campaign_id", id, "actor", actor)
	return &OperationResult{Success: true, Message: "campaign resumed"}, nil
}

// Cancel moves any non-terminal campaign to cancelled.
func (s *LifecycleService) Cancel(ctx context.Context, id uuid.UUID, actor string) (*OperationResult, error) {
	err := s.campaignRepo.Cancel(ctx, id)
	if result, err := s.foldTransition(ctx, "cancel", id, actor, err); result != nil || err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "Campaign cancelled", "campaign_id", id, "actor", actor)
	return &OperationResult{Success: true, Message: "campaign cancelled"}, nil
}

// MarkFailed records an unrecoverable send error reported by the pipeline.
func (s *LifecycleService) MarkFailed(ctx context.Context, id uuid.UUID, reason, actor string) (*OperationResult, error) {
	err := s.campaignRepo.MarkFailed(ctx, id, reason)
	if result, err := s.foldTransition(ctx, "fail", id, actor, err); result != nil || err != nil {
		return result, err
	}

	s.logger.WarnContext(ctx, "Campaign marked failed", "campaign_id", id, "actor", actor, "reason", reason)
	return &OperationResult{Success: true, Message: "campaign marked failed"}, nil
}

// GetStatistics aggregates delivery attempt counts for one campaign.
func (s *LifecycleService) GetStatistics(ctx context.Context, id uuid.UUID) (*domain.CampaignStatistics, error) {
	// Existence check first so an absent campaign is a not-found, not empty stats.
	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	counts, err := s.attemptRepo.CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &domain.CampaignStatistics{
		CampaignID: id,
		Pending:    counts[domain.DeliveryPending],
		Sent:       counts[domain.DeliverySent],
		Failed:     counts[domain.DeliveryFailed],
	}
	stats.Total = stats.Pending + stats.Sent + stats.Failed
	if stats.Total > 0 {
		stats.PercentSent = float64(stats.Sent) / float64(stats.Total) * 100
	}
	return stats, nil
}

// GetCampaign returns one campaign by ID.
func (s *LifecycleService) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

// ListCampaigns returns a page of campaigns, optionally filtered by status.
func (s *LifecycleService) ListCampaigns(ctx context.Context, status domain.CampaignStatus, page, pageSize int) ([]*domain.Campaign, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.campaignRepo.List(ctx, status, (page-1)*pageSize, pageSize)
}

// foldTransition converts a guarded-update error into the structured result
// contract: invalid transitions become a failure result, everything else
// passes through. Returns (nil, nil) when the transition succeeded.
func (s *LifecycleService) foldTransition(ctx context.Context, operation string, id uuid.UUID, actor string, err error) (*OperationResult, error) {
	switch {
	case err == nil:
		campaignTransitionsCounter.WithLabelValues(operation, "success").Inc()
		return nil, nil
	case errors.Is(err, domain.ErrInvalidState):
		campaignTransitionsCounter.WithLabelValues(operation, "invalid_state").Inc()
		s.logger.WarnContext(ctx, "Illegal campaign transition rejected",
			"operation", operation, "campaign_id", id, "actor", actor, "error", err)
		return &OperationResult{Success: false, Message: err.Error()}, nil
	default:
		campaignTransitionsCounter.WithLabelValues(operation, "error").Inc()
		return nil, err
	}
}
