package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
	"github.com/quillworks/campaign-service/internal/platform/messagebroker"
)

// SubjectCampaignDispatch is published once per campaign the scheduler
// promotes to sending; the send pipeline consumes it.
const SubjectCampaignDispatch = "campaign.jobs.dispatch"

// RunnerConfig holds scheduler tuning knobs.
type RunnerConfig struct {
	BatchSize int
}

// CampaignDispatchEvent is the NATS payload for SubjectCampaignDispatch.
type CampaignDispatchEvent struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Title      string    `json:"title"`
	StartedAt  time.Time `json:"started_at"`
}

// RunSummary reports one scheduler pass.
type RunSummary struct {
	Checked   int      `json:"checked"`
	Started   int      `json:"started"`
	Completed int      `json:"completed"`
	Errors    []string `json:"errors"`
}

// SchedulerStatus is a read-only snapshot of the runner's last pass. Safe to
// read while a run is in progress.
type SchedulerStatus struct {
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastChecked int        `json:"last_checked"`
	LastStarted int        `json:"last_started"`
	LastErrors  int        `json:"last_errors"`
	TotalRuns   int        `json:"total_runs"`
}

// SchedulerRunner promotes due campaigns from scheduled to sending. It owns no
// timer; callers trigger Run from a ticker or the manual endpoint. Running it
// twice in quick succession is safe: AcquireDue's guard only matches scheduled
// campaigns, so an already-started campaign is skipped on the second pass.
type SchedulerRunner struct {
	campaignRepo domain.CampaignRepository
	publisher    messagebroker.Publisher
	config       RunnerConfig
	logger       *slog.Logger

	mu     sync.RWMutex
	status SchedulerStatus
}

func NewSchedulerRunner(
	campaignRepo domain.CampaignRepository,
	publisher messagebroker.Publisher,
	config RunnerConfig,
	logger *slog.Logger,
) *SchedulerRunner {
	return &SchedulerRunner{
		campaignRepo: campaignRepo,
		publisher:    publisher,
		config:       config,
		logger:       logger,
	}
}

// Run executes one scheduler pass: claim due campaigns, dispatch each to the
// send pipeline, then sweep sending campaigns that have no pending attempts
// left into completed. One campaign's dispatch failure does not abort the
// rest of the pass.
func (r *SchedulerRunner) Run(ctx context.Context) (*RunSummary, error) {
	timer := prometheus.NewTimer(schedulerRunDurationHist)
	defer timer.ObserveDuration()
	schedulerRunsCounter.Inc()

	summary := &RunSummary{Errors: []string{}}
	now := time.Now().UTC()

	campaigns, err := r.campaignRepo.AcquireDue(ctx, now, r.config.BatchSize)
	if err != nil && !errors.Is(err, domain.ErrNoDueCampaigns) {
		r.logger.ErrorContext(ctx, "Failed to acquire due campaigns", "error", err)
		return nil, fmt.Errorf("failed to acquire due campaigns: %w", err)
	}
	summary.Checked = len(campaigns)

	for _, campaign := range campaigns {
		if err := r.dispatch(ctx, campaign); err != nil {
			schedulerErrorsCounter.Inc()
			summary.Errors = append(summary.Errors, fmt.Sprintf("campaign %s: %v", campaign.ID, err))
			r.logger.ErrorContext(ctx, "Failed to dispatch campaign", "error", err, "campaign_id", campaign.ID)
			continue
		}
		schedulerStartedCounter.Inc()
		summary.Started++
		r.logger.InfoContext(ctx, "Campaign started", "campaign_id", campaign.ID, "title", campaign.Title)
	}

	completed, err := r.campaignRepo.CompleteSendingWithoutPending(ctx)
	if err != nil {
		schedulerErrorsCounter.Inc()
		summary.Errors = append(summary.Errors, fmt.Sprintf("completion sweep: %v", err))
		r.logger.ErrorContext(ctx, "Completion sweep failed", "error", err)
	} else {
		summary.Completed = len(completed)
		for _, id := range completed {
			r.logger.InfoContext(ctx, "Campaign completed", "campaign_id", id)
		}
	}

	r.recordRun(now, summary)
	return summary, nil
}

func (r *SchedulerRunner) dispatch(ctx context.Context, campaign *domain.Campaign) error {
	event := CampaignDispatchEvent{
		CampaignID: campaign.ID,
		Title:      campaign.Title,
		StartedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal dispatch event: %w", err)
	}
	if err := r.publisher.Publish(ctx, SubjectCampaignDispatch, data); err != nil {
		return fmt.Errorf("publish dispatch event: %w", err)
	}
	return nil
}

// Status returns a snapshot of the last run. Does not mutate state.
func (r *SchedulerRunner) Status() SchedulerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *SchedulerRunner) recordRun(ranAt time.Time, summary *RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastRunAt = &ranAt
	r.status.LastChecked = summary.Checked
	r.status.LastStarted = summary.Started
	r.status.LastErrors = len(summary.Errors)
	r.status.TotalRuns++
}
