package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"comanda/internal/domain"
	"comanda/internal/dto"
)

type RevenueRepository interface {
	ListCompletedInWindow(ctx context.Context, restaurantID uint64, start, end time.Time) ([]domain.Order, error)
	SalesRows(ctx context.Context, restaurantID uint64, start, end time.Time) ([]dto.SalesRow, error)
}

type MenuCategoryReader interface {
	CategoriesByRestaurant(ctx context.Context, restaurantID uint64) (map[uint64]string, error)
}

const (
	defaultTopItemsLimit = 10
	defaultTableLimit    = 10
)

// AggregatorService computes every report on demand from the completed
// order history. Nothing is precomputed or persisted.
type AggregatorService struct {
	revenue RevenueRepository
	menu    MenuCategoryReader
	logger  *zap.Logger
}

func NewAggregatorService(revenue RevenueRepository, menu MenuCategoryReader, logger *zap.Logger) *AggregatorService {
	return &AggregatorService{
		revenue: revenue,
		menu:    menu,
		logger:  logger,
	}
}

func (s *AggregatorService) Totals(ctx context.Context, restaurantID uint64, window dto.Window) (dto.RevenuePeriod, error) {
	orders, err := s.revenue.ListCompletedInWindow(ctx, restaurantID, window.Start, window.End)
	if err != nil {
		return dto.RevenuePeriod{}, err
	}
	return Totals(window, orders), nil
}

func (s *AggregatorService) Growth(ctx context.Context, restaurantID uint64, window dto.Window) (dto.GrowthResult, error) {
	current, err := s.Totals(ctx, restaurantID, window)
	if err != nil {
		return dto.GrowthResult{}, err
	}
	previous, err := s.Totals(ctx, restaurantID, window.Previous())
	if err != nil {
		return dto.GrowthResult{}, err
	}
	return dto.GrowthResult{
		Current:       current,
		Previous:      previous,
		GrowthPercent: GrowthPercent(current, previous),
	}, nil
}

// Dashboard fetches the window once and folds every report over the same
// order set.
func (s *AggregatorService) Dashboard(ctx context.Context, restaurantID uint64, window dto.Window, granularity Granularity) (*dto.Dashboard, error) {
	orders, err := s.revenue.ListCompletedInWindow(ctx, restaurantID, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	previousOrders, err := s.revenue.ListCompletedInWindow(ctx, restaurantID, window.Previous().Start, window.Previous().End)
	if err != nil {
		return nil, err
	}

	categories, err := s.menu.CategoriesByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	totals := Totals(window, orders)
	previous := Totals(window.Previous(), previousOrders)

	dashboard := &dto.Dashboard{
		Totals: totals,
		Growth: dto.GrowthResult{
			Current:       totals,
			Previous:      previous,
			GrowthPercent: GrowthPercent(totals, previous),
		},
		TopItems:          TopItems(orders, defaultTopItemsLimit),
		DailySeries:       Series(orders, granularity),
		TableRanking:      TableRanking(orders, defaultTableLimit),
		PeakHours:         PeakHours(orders),
		CategoryBreakdown: CategoryBreakdown(orders, categories),
		RepeatCustomers:   RepeatCustomerRate(orders),
	}

	s.logger.Debug("dashboard computed",
		zap.Uint64("restaurantId", restaurantID),
		zap.Time("start", window.Start),
		zap.Time("end", window.End),
		zap.Int("orderCount", totals.OrderCount))
	return dashboard, nil
}

func (s *AggregatorService) Export(ctx context.Context, restaurantID uint64, start, end time.Time) ([]dto.SalesRow, error) {
	return s.revenue.SalesRows(ctx, restaurantID, start, end)
}
