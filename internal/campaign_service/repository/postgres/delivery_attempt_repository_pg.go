package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
)

type PgDeliveryAttemptRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgDeliveryAttemptRepository(db *pgxpool.Pool, logger *slog.Logger) *PgDeliveryAttemptRepository {
	return &PgDeliveryAttemptRepository{db: db, logger: logger}
}

func (r *PgDeliveryAttemptRepository) BulkCreate(ctx context.Context, attempts []*domain.DeliveryAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO delivery_attempts (id, campaign_id, recipient, status, attempt_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, a := range attempts {
		batch.Queue(query, a.ID, a.CampaignID, a.Recipient, a.Status, a.AttemptCount, a.CreatedAt, a.UpdatedAt)
	}

	// One transaction so the recipient set is created atomically.
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range attempts {
		if _, err := br.Exec(); err != nil {
			br.Close()
			r.logger.ErrorContext(ctx, "Error inserting delivery attempts batch", "error", err)
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgDeliveryAttemptRepository) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[domain.DeliveryStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM delivery_attempts
		WHERE campaign_id = $1
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, campaignID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error counting delivery attempts", "error", err, "campaign_id", campaignID)
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.DeliveryStatus]int{
		domain.DeliveryPending: 0,
		domain.DeliverySent:    0,
		domain.DeliveryFailed:  0,
	}
	for rows.Next() {
		var status domain.DeliveryStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// RequeueFailed is a single statement, so a partially applied retry batch
// cannot be observed. Attempts already at the retry cap are left untouched.
func (r *PgDeliveryAttemptRepository) RequeueFailed(ctx context.Context, campaignID uuid.UUID, maxRetries int) (int, error) {
	query := `
		UPDATE delivery_attempts
		SET status = $1, attempt_count = attempt_count + 1, last_error = NULL, updated_at = $2
		WHERE campaign_id = $3 AND status = $4 AND attempt_count < $5
	`
	tag, err := r.db.Exec(ctx, query,
		domain.DeliveryPending, time.Now().UTC(), campaignID, domain.DeliveryFailed, maxRetries)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error requeueing failed delivery attempts", "error", err, "campaign_id", campaignID)
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

var _ domain.DeliveryAttemptRepository = (*PgDeliveryAttemptRepository)(nil)
