package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/campaign-service/internal/campaign_service/app"
	"github.com/quillworks/campaign-service/internal/campaign_service/domain"
	"github.com/quillworks/campaign-service/internal/campaign_service/middleware"
)

// --- Mocks ---

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

// --- Test setup ---

type handlerTestComponents struct {
	router       http.Handler
	campaignRepo *MockCampaignRepository
	attemptRepo  *MockDeliveryAttemptRepository
	publisher    *MockPublisher
}

func setupHandlerTest(t *testing.T) handlerTestComponents {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	campaignRepo := new(MockCampaignRepository)
	attemptRepo := new(MockDeliveryAttemptRepository)
	publisher := new(MockPublisher)

	lifecycle := app.NewLifecycleService(campaignRepo, attemptRepo, logger)
	retry := app.NewRetryCoordinator(campaignRepo, attemptRepo, publisher, 3, logger)
	handler := NewCampaignHandler(lifecycle, retry, logger, validator.New())

	r := chi.NewRouter()
	// Inject an editor identity directly; auth middleware has its own tests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.AuthenticatedUserContextKey,
				middleware.AuthenticatedUser{ID: "u-1", Email: "alice@x.com", Role: middleware.RoleEditor})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/campaigns/{campaignID}/stats", handler.GetStatistics)
	r.Post("/campaigns/{campaignID}/pause", handler.PauseCampaign)
	r.Post("/campaigns/{campaignID}/resume", handler.ResumeCampaign)
	r.Post("/campaigns/{campaignID}/retries", handler.RetryDeliveries)

	return handlerTestComponents{
		router:       r,
		campaignRepo: campaignRepo,
		attemptRepo:  attemptRepo,
		publisher:    publisher,
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestCampaignHandler_PauseCampaign(t *testing.T) {
	t.Run("pauses with reason and actor from the token", func(t *testing.T) {
		tc := setupHandlerTest(t)
		id := uuid.New()
		tc.campaignRepo.On("Pause", mock.Anything, id, "maintenance", "alice@x.com", mock.Anything).Return(nil)

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/"+id.String()+"/pause", PauseCampaignRequestDTO{Reason: "maintenance"})

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp OperationResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		tc.campaignRepo.AssertExpectations(t)
	})

	t.Run("illegal transition returns 409 with a failure envelope", func(t *testing.T) {
		tc := setupHandlerTest(t)
		id := uuid.New()
		tc.campaignRepo.On("Pause", mock.Anything, id, "maintenance", "alice@x.com", mock.Anything).
			Return(fmt.Errorf("%w: campaign is draft", domain.ErrInvalidState))

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/"+id.String()+"/pause", PauseCampaignRequestDTO{Reason: "maintenance"})

		assert.Equal(t, http.StatusConflict, rec.Code)
		var resp OperationResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
	})

	t.Run("missing campaign returns 404", func(t *testing.T) {
		tc := setupHandlerTest(t)
		id := uuid.New()
		tc.campaignRepo.On("Pause", mock.Anything, id, "maintenance", "alice@x.com", mock.Anything).
			Return(domain.ErrNotFound)

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/"+id.String()+"/pause", PauseCampaignRequestDTO{Reason: "maintenance"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing reason is a validation error", func(t *testing.T) {
		tc := setupHandlerTest(t)
		id := uuid.New()

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/"+id.String()+"/pause", PauseCampaignRequestDTO{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		tc.campaignRepo.AssertNotCalled(t, "Pause")
	})

	t.Run("malformed campaign id returns 400", func(t *testing.T) {
		tc := setupHandlerTest(t)

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/not-a-uuid/pause", PauseCampaignRequestDTO{Reason: "maintenance"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCampaignHandler_ResumeCampaign(t *testing.T) {
	tc := setupHandlerTest(t)
	id := uuid.New()
	tc.campaignRepo.On("Resume", mock.Anything, id, "alice@x.com", mock.Anything).Return(nil)

	rec := doJSON(t, tc.router, http.MethodPost, "/campaigns/"+id.String()+"/resume", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	tc.campaignRepo.AssertExpectations(t)
}

func TestCampaignHandler_GetStatistics(t *testing.T) {
	tc := setupHandlerTest(t)
	id := uuid.New()
	tc.campaignRepo.On("GetByID", mock.Anything, id).Return(&domain.Campaign{ID: id}, nil)
	tc.attemptRepo.On("CountByStatus", mock.Anything, id).Return(map[domain.DeliveryStatus]int{
		domain.DeliverySent:   8,
		domain.DeliveryFailed: 2,
	}, nil)

	rec := doJSON(t, tc.router, http.MethodGet, "/campaigns/"+id.String()+"/stats", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var stats domain.CampaignStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.Total)
	assert.InDelta(t, 80.0, stats.PercentSent, 0.001)
}

func TestCampaignHandler_RetryDeliveries(t *testing.T) {
	t.Run("requeues failed deliveries", func(t *testing.T) {
		tc := setupHandlerTest(t)
		id := uuid.New()
		tc.campaignRepo.On("GetByID", mock.Anything, id).Return(&domain.Campaign{ID: id}, nil)
		tc.attemptRepo.On("RequeueFailed", mock.Anything, id, 3).Return(4, nil)
		tc.publisher.On("Publish", mock.Anything, app.SubjectDeliveriesRequeued, mock.Anything).Return(nil)

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/"+id.String()+"/retries", RetryDeliveriesRequestDTO{MaxRetries: 3})

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp RetryResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 4, resp.RetriedCount)
	})

	t.Run("nothing to retry is still a success", func(t *testing.T) {
		tc := setupHandlerTest(t)
		id := uuid.New()
		tc.campaignRepo.On("GetByID", mock.Anything, id).Return(&domain.Campaign{ID: id}, nil)
		tc.attemptRepo.On("RequeueFailed", mock.Anything, id, 3).Return(0, nil)

		rec := doJSON(t, tc.router, http.MethodPost,
			"/campaigns/"+id.String()+"/retries", RetryDeliveriesRequestDTO{MaxRetries: 3})

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp RetryResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 0, resp.RetriedCount)
	})
}
