package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
)

type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) List(ctx context.Context, status domain.CampaignStatus, offset, limit int) ([]*domain.Campaign, int, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Campaign), args.Int(1), args.Error(2)
}

func (m *MockCampaignRepository) Schedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) error {
	args := m.Called(ctx, id, scheduledAt)
	return args.Error(0)
}

func (m *MockCampaignRepository) Pause(ctx context.Context, id uuid.UUID, reason, actor string, pausedAt time.Time) error {
	args := m.Called(ctx, id, reason, actor, pausedAt)
	return args.Error(0)
}

func (m *MockCampaignRepository) Resume(ctx context.Context, id uuid.UUID, actor string, resumedAt time.Time) error {
	args := m.Called(ctx, id, actor, resumedAt)
	return args.Error(0)
}

func (m *MockCampaignRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCampaignRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockCampaignRepository) AcquireDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.Campaign, error) {
	args := m.Called(ctx, dueTime, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) CompleteSendingWithoutPending(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockDeliveryAttemptRepository struct {
	mock.Mock
}

func (m *MockDeliveryAttemptRepository) BulkCreate(ctx context.Context, attempts []*domain.DeliveryAttempt) error {
	args := m.Called(ctx, attempts)
	return args.Error(0)
}

func (m *MockDeliveryAttemptRepository) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[domain.DeliveryStatus]int, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.DeliveryStatus]int), args.Error(1)
}

func (m *MockDeliveryAttemptRepository) RequeueFailed(ctx context.Context, campaignID uuid.UUID, maxRetries int) (int, error) {
	args := m.Called(ctx, campaignID, maxRetries)
	return args.Int(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}
