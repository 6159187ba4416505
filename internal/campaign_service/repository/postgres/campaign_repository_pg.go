package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
)

const campaignColumns = `id, title, status, scheduled_at, paused_at, resumed_at, pause_reason, created_by, paused_by, resumed_by, fail_reason, created_at, updated_at`

type PgCampaignRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgCampaignRepository(db *pgxpool.Pool, logger *slog.Logger) *PgCampaignRepository {
	return &PgCampaignRepository{db: db, logger: logger}
}

func (r *PgCampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (id, title, status, scheduled_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Title, c.Status, c.ScheduledAt, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating campaign", "error", err, "campaign_id", c.ID)
		return err
	}
	return nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var pauseReason, pausedBy, resumedBy, failReason *string
	err := row.Scan(
		&c.ID, &c.Title, &c.Status, &c.ScheduledAt, &c.PausedAt, &c.ResumedAt,
		&pauseReason, &c.CreatedBy, &pausedBy, &resumedBy, &failReason,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pauseReason != nil {
		c.PauseReason = *pauseReason
	}
	if pausedBy != nil {
		c.PausedBy = *pausedBy
	}
	if resumedBy != nil {
		c.ResumedBy = *resumedBy
	}
	if failReason != nil {
		c.FailReason = *failReason
	}
	return c, nil
}

func (r *PgCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)
	c, err := scanCampaign(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting campaign by ID", "error", err, "campaign_id", id)
		return nil, err
	}
	return c, nil
}

func (r *PgCampaignRepository) List(ctx context.Context, status domain.CampaignStatus, offset, limit int) ([]*domain.Campaign, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns`, campaignColumns)
	countQuery := `SELECT COUNT(*) FROM campaigns`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		countQuery += ` WHERE status = $1`
		args = append(args, status)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	}

	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing campaigns", "error", err)
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// guardedUpdate runs a status-guarded UPDATE and maps a zero-row result to
// ErrNotFound or ErrInvalidState depending on whether the campaign exists.
func (r *PgCampaignRepository) guardedUpdate(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error executing guarded campaign update", "error", err, "campaign_id", id)
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status domain.CampaignStatus
	err = r.db.QueryRow(ctx, `SELECT status FROM campaigns WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("%w: campaign is %s", domain.ErrInvalidState, status)
}

func (r *PgCampaignRepository) Schedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) error {
	query := `
		UPDATE campaigns
		SET status = $1, scheduled_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.guardedUpdate(ctx, id, query,
		domain.StatusScheduled, scheduledAt, time.Now().UTC(), id, domain.StatusDraft)
}

func (r *PgCampaignRepository) Pause(ctx context.Context, id uuid.UUID, reason, actor string, pausedAt time.Time) error {
	query := `
		UPDATE campaigns
		SET status = $1, paused_at = $2, paused_by = $3, pause_reason = $4, updated_at = $2
		WHERE id = $5 AND status = ANY($6)
	`
	return r.guardedUpdate(ctx, id, query,
		domain.StatusPaused, pausedAt, actor, reason, id,
		[]string{string(domain.StatusSending), string(domain.StatusScheduled)})
}

func (r *PgCampaignRepository) Resume(ctx context.Context, id uuid.UUID, actor string, resumedAt time.Time) error {
	query := `
		UPDATE campaigns
		SET status = $1, paused_at = NULL, resumed_at = $2, resumed_by = $3, updated_at = $2
		WHERE id = $4 AND status = $5
	`
	return r.guardedUpdate(ctx, id, query,
		domain.StatusSending, resumedAt, actor, id, domain.StatusPaused)
}

func (r *PgCampaignRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = $2
		WHERE id = $3 AND NOT (status = ANY($4))
	`
	return r.guardedUpdate(ctx, id, query,
		domain.StatusCancelled, time.Now().UTC(), id,
		[]string{string(domain.StatusCompleted), string(domain.StatusFailed), string(domain.StatusCancelled)})
}

func (r *PgCampaignRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE campaigns
		SET status = $1, fail_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.guardedUpdate(ctx, id, query,
		domain.StatusFailed, reason, time.Now().UTC(), id, domain.StatusSending)
}

func (r *PgCampaignRepository) AcquireDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.Campaign, error) {
	query := fmt.Sprintf(`
		WITH due_ids AS (
			SELECT id
			FROM campaigns
			WHERE status = $1 AND scheduled_at <= $2
			ORDER BY scheduled_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		UPDATE campaigns c
		SET status = $4, updated_at = $5
		FROM due_ids d
		WHERE c.id = d.id
		RETURNING %s
	`, prefixColumns("c", campaignColumns))

	rows, err := r.db.Query(ctx, query,
		domain.StatusScheduled, dueTime, limit, domain.StatusSending, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Error acquiring due campaigns", "error", err)
		return nil, err
	}
	defer rows.Close()

	var campaigns []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, domain.ErrNoDueCampaigns
	}

	r.logger.InfoContext(ctx, "Acquired due campaigns", "count", len(campaigns))
	return campaigns, nil
}

func (r *PgCampaignRepository) CompleteSendingWithoutPending(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		UPDATE campaigns c
		SET status = $1, updated_at = $2
		WHERE c.status = $3
		  AND NOT EXISTS (
			SELECT 1 FROM delivery_attempts a
			WHERE a.campaign_id = c.id AND a.status = $4
		  )
		RETURNING c.id
	`
	rows, err := r.db.Query(ctx, query,
		domain.StatusCompleted, time.Now().UTC(), domain.StatusSending, domain.DeliveryPending)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error completing finished campaigns", "error", err)
		return nil, err
	}
	defer rows.Close()

	var completed []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		completed = append(completed, id)
	}
	return completed, rows.Err()
}

var _ domain.CampaignRepository = (*PgCampaignRepository)(nil)
