package testmocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/services"
)

// MockRecommendationEngine implements handlers.RecommendationEngine for testing
type MockRecommendationEngine struct {
	mock.Mock
}

func (m *MockRecommendationEngine) Recommend(ctx context.Context, req models.RecommendationRequest) (*models.Recommendation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recommendation), args.Error(1)
}

func (m *MockRecommendationEngine) Routes(ctx context.Context, from, to string) (models.PathResult, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(models.PathResult), args.Error(1)
}

func (m *MockRecommendationEngine) Rate(ctx context.Context, base, quote string, fresh bool) (models.RateResult, error) {
	args := m.Called(ctx, base, quote, fresh)
	return args.Get(0).(models.RateResult), args.Error(1)
}

func (m *MockRecommendationEngine) Trend(ctx context.Context, base, quote string, window int) (services.TrendResult, error) {
	args := m.Called(ctx, base, quote, window)
	return args.Get(0).(services.TrendResult), args.Error(1)
}

func (m *MockRecommendationEngine) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecommendationEngine) ClearRateCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecommendationEngine) Status() services.SnapshotStatus {
	args := m.Called()
	return args.Get(0).(services.SnapshotStatus)
}

func (m *MockRecommendationEngine) LastRefreshError() error {
	args := m.Called()
	return args.Error(0)
}

// MockHealthChecker implements handlers.HealthChecker for testing
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
